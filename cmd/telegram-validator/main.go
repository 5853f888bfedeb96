// Package main checks telegram profile documents before they are deployed.
//
// Usage:
//
//	telegram-validator [dir]
//
// Without dir the built-in profiles are checked. Every problem is printed as
// "file: path: message" and the exit status is 1 when any was found.
package main

import (
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/AndyTempel/victron-dlms-gird-meter/profile"
	"github.com/AndyTempel/victron-dlms-gird-meter/telegrams"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("telegram-validator", flag.ContinueOnError)
	flags.SetOutput(stderr)
	quiet := flags.Bool("quiet", false, "Only print problems")
	flags.Usage = func() {
		_, _ = fmt.Fprintln(stderr, "Usage: telegram-validator [--quiet] [dir]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}

	var (
		fsys   fs.FS = telegrams.FS
		source       = "built-in profiles"
	)
	switch flags.NArg() {
	case 0:
	case 1:
		source = flags.Arg(0)
		info, err := os.Stat(source)
		if err != nil || !info.IsDir() {
			_, _ = fmt.Fprintf(stderr, "%s: not a directory\n", source)
			return 2
		}
		fsys = os.DirFS(source)
	default:
		flags.Usage()
		return 2
	}

	validator, err := profile.NewValidator()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	issues, err := validator.ValidateFS(fsys)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", source, err)
		return 2
	}

	for _, issue := range issues {
		_, _ = fmt.Fprintln(stdout, issue.String())
	}
	if len(issues) > 0 {
		_, _ = fmt.Fprintf(stderr, "%d problem(s) in %s\n", len(issues), source)
		return 1
	}
	if !*quiet {
		_, _ = fmt.Fprintf(stdout, "%s: ok\n", source)
	}
	return 0
}
