package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/AndyTempel/victron-dlms-gird-meter/component"
	telegramprocessor "github.com/AndyTempel/victron-dlms-gird-meter/processor/telegram"
)

type description struct {
	Meta         component.Metadata     `json:"meta"`
	Profile      string                 `json:"profile"`
	Telegrams    []string               `json:"telegrams"`
	InputPorts   []component.Port       `json:"input_ports"`
	OutputPorts  []component.Port       `json:"output_ports"`
	ConfigSchema component.ConfigSchema `json:"config_schema"`
}

// describe prints the configured processor's ports and config schema as JSON
// so deployments can check subjects and buckets before connecting.
func describe(w io.Writer, procConfig []byte, logger *slog.Logger) error {
	proc, err := telegramprocessor.NewProcessor(procConfig, component.Dependencies{Logger: logger})
	if err != nil {
		return fmt.Errorf("create telegram processor: %w", err)
	}
	return writeDescription(w, proc, proc.Profile().ID(), telegramNames(proc))
}

func telegramNames(proc *telegramprocessor.Processor) []string {
	defs := proc.Profile().Definitions
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

func writeDescription(w io.Writer, comp component.Discoverable, profileID string, telegrams []string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(description{
		Meta:         comp.Meta(),
		Profile:      profileID,
		Telegrams:    telegrams,
		InputPorts:   comp.InputPorts(),
		OutputPorts:  comp.OutputPorts(),
		ConfigSchema: comp.ConfigSchema(),
	})
}
