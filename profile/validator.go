package profile

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/AndyTempel/victron-dlms-gird-meter/errors"
)

//go:embed schema/*.json
var schemaFS embed.FS

// Issue is one problem found in a profile document.
type Issue struct {
	File    string
	Path    string
	Message string
}

func (i Issue) String() string {
	if i.Path == "" {
		return fmt.Sprintf("%s: %s", i.File, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.File, i.Path, i.Message)
}

// Validator checks profile documents against the document schema and the
// structural rules the matcher relies on.
type Validator struct {
	profileSchema *gojsonschema.Schema
	defaultSchema *gojsonschema.Schema
}

// NewValidator compiles the embedded document schemas.
func NewValidator() (*Validator, error) {
	ps, err := compileSchema("schema/profile.schema.json")
	if err != nil {
		return nil, err
	}
	ds, err := compileSchema("schema/default.schema.json")
	if err != nil {
		return nil, err
	}
	return &Validator{profileSchema: ps, defaultSchema: ds}, nil
}

func compileSchema(name string) (*gojsonschema.Schema, error) {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, errors.WrapFatal(err, "Validator", "compileSchema", "read "+name)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, errors.WrapFatal(err, "Validator", "compileSchema", "compile "+name)
	}
	return s, nil
}

// ValidateFS checks default.yml and every profile document at the root of
// fsys. The returned error is only set when fsys cannot be read; document
// problems are reported as issues sorted by file.
func (v *Validator) ValidateFS(fsys fs.FS) ([]Issue, error) {
	var issues []Issue

	if data, err := fs.ReadFile(fsys, DefaultDocument); err == nil {
		issues = append(issues, v.validateDocument(DefaultDocument, data, v.defaultSchema, false)...)
	}

	files, err := documentFiles(fsys)
	if err != nil {
		return nil, errors.WrapTransient(err, "Validator", "ValidateFS", "list profile documents")
	}
	sort.Strings(files)

	ids := make(map[string]string, len(files))
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, errors.WrapTransient(err, "Validator", "ValidateFS", "read "+name)
		}
		issues = append(issues, v.validateDocument(name, data, v.profileSchema, true)...)

		node, err := parseMapping(data)
		if err != nil {
			continue
		}
		if id := profileID(node); id != "" {
			if prev, dup := ids[id]; dup {
				issues = append(issues, Issue{
					File:    name,
					Path:    "info.id",
					Message: fmt.Sprintf("profile %q is already declared by %s", id, prev),
				})
				continue
			}
			ids[id] = name
		}
	}
	return issues, nil
}

// ValidateDocument checks a single profile document.
func (v *Validator) ValidateDocument(name string, data []byte) []Issue {
	return v.validateDocument(name, data, v.profileSchema, true)
}

func (v *Validator) validateDocument(name string, data []byte, schema *gojsonschema.Schema, structural bool) []Issue {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return []Issue{{File: name, Message: "invalid YAML: " + err.Error()}}
	}
	if raw == nil {
		raw = map[string]any{}
	}

	body, err := json.Marshal(raw)
	if err != nil {
		return []Issue{{File: name, Message: "document cannot be represented as JSON: " + err.Error()}}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return []Issue{{File: name, Message: "schema validation error: " + err.Error()}}
	}

	var issues []Issue
	for _, desc := range result.Errors() {
		issues = append(issues, Issue{File: name, Path: desc.Field(), Message: desc.Description()})
	}
	if !result.Valid() || !structural {
		return issues
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return append(issues, Issue{File: name, Message: err.Error()})
	}
	return append(issues, structuralIssues(name, &doc)...)
}

// structuralIssues checks the rules the schema cannot express.
func structuralIssues(name string, doc *document) []Issue {
	var issues []Issue
	add := func(path, format string, args ...any) {
		issues = append(issues, Issue{File: name, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if len(doc.Telegrams) > 1 && !doc.Info.MultipleTelegrams {
		add("info.multiple_telegrams", "%d telegrams declared but multiple_telegrams is false", len(doc.Telegrams))
	}

	names := make(map[string]bool, len(doc.Telegrams))
	for i, tg := range doc.Telegrams {
		base := fmt.Sprintf("telegrams.%d", i)
		if names[tg.Name] {
			add(base+".name", "duplicate telegram name %q", tg.Name)
		}
		names[tg.Name] = true

		if tg.Length != len(tg.Contents) {
			add(base+".length", "length %d does not match %d declared fields", tg.Length, len(tg.Contents))
		}
		// contents may be listed in any order; positions must cover 0..n-1 once
		seen := make(map[int]bool, len(tg.Contents))
		for j, c := range tg.Contents {
			path := fmt.Sprintf("%s.contents.%d.position", base, j)
			switch {
			case seen[c.Position]:
				add(path, "duplicate position %d", c.Position)
			case c.Position < 0 || c.Position >= len(tg.Contents):
				add(path, "position %d outside 0..%d", c.Position, len(tg.Contents)-1)
			}
			seen[c.Position] = true
		}
	}

	for i, rd := range doc.Transformations {
		path := fmt.Sprintf("transformations.%d", i)
		rule, err := rd.rule()
		if err != nil {
			add(path, "%v", err)
			continue
		}
		if n, ok := rule.Value.Number(); rule.Kind == RuleDivide && ok && n == 0 {
			add(path+".value", "DIVIDE by zero")
		}
	}
	return issues
}
