package profile

import (
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/AndyTempel/victron-dlms-gird-meter/scalar"
)

// document mirrors a telegram profile YAML file after the default document
// has been merged underneath it.
type document struct {
	Version         string        `yaml:"version"`
	Info            Info          `yaml:"info"`
	Telegrams       []telegramDoc `yaml:"telegrams"`
	Transformations []ruleDoc     `yaml:"transformations"`
}

type telegramDoc struct {
	Name     string       `yaml:"name"`
	Length   int          `yaml:"length"`
	Contents []contentDoc `yaml:"contents"`
}

type contentDoc struct {
	Position int    `yaml:"position"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
}

type ruleDoc struct {
	Type         string `yaml:"type"`
	Key          string `yaml:"key"`
	Value        any    `yaml:"value"`
	Operand      string `yaml:"operand"`
	TransformKey string `yaml:"transform_key"`
	Multiplier   any    `yaml:"multiplier"`
}

// parseMapping decodes a YAML file and returns its top-level mapping node.
func parseMapping(data []byte) (*yaml.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		// empty file
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("document root must be a mapping")
	}
	return root.Content[0], nil
}

// mergeTopLevel returns a mapping holding every top-level key of base, with
// keys present in over replacing base's value wholesale.
func mergeTopLevel(base, over *yaml.Node) *yaml.Node {
	merged := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	overridden := make(map[string]bool, len(over.Content)/2)
	for i := 0; i+1 < len(over.Content); i += 2 {
		overridden[over.Content[i].Value] = true
	}
	if base != nil {
		for i := 0; i+1 < len(base.Content); i += 2 {
			if !overridden[base.Content[i].Value] {
				merged.Content = append(merged.Content, base.Content[i], base.Content[i+1])
			}
		}
	}
	merged.Content = append(merged.Content, over.Content...)
	return merged
}

// profileID extracts info.id from a mapping, returning "" when absent.
func profileID(node *yaml.Node) string {
	var head struct {
		Info struct {
			ID string `yaml:"id"`
		} `yaml:"info"`
	}
	if err := node.Decode(&head); err != nil {
		return ""
	}
	return head.Info.ID
}

// build converts a merged document into a Profile.
func (d *document) build(logger *slog.Logger) (*Profile, error) {
	p := &Profile{
		Version:     d.Version,
		Info:        d.Info,
		Definitions: make([]TelegramDefinition, 0, len(d.Telegrams)),
		Rules:       make([]TransformRule, 0, len(d.Transformations)),
	}

	for _, tg := range d.Telegrams {
		contents := make([]FieldDefinition, len(tg.Contents))
		for i, c := range tg.Contents {
			ft, ok := ParseFieldType(c.Type)
			if !ok {
				logger.Warn("Telegram field declares an unsupported type",
					"telegram", tg.Name,
					"field", c.Name,
					"type", c.Type)
			}
			contents[i] = FieldDefinition{Position: c.Position, Name: c.Name, Type: ft, Tag: c.Type}
		}
		p.Definitions = append(p.Definitions, newTelegramDefinition(tg.Name, tg.Length, contents))
	}

	for i, rd := range d.Transformations {
		rule, err := rd.rule()
		if err != nil {
			return nil, fmt.Errorf("transformations[%d]: %w", i, err)
		}
		p.Rules = append(p.Rules, rule)
	}

	p.Index = buildIndex(p.Definitions, logger)
	return p, nil
}

func (rd ruleDoc) rule() (TransformRule, error) {
	kind, err := ParseRuleKind(rd.Type)
	if err != nil {
		return TransformRule{}, err
	}
	if rd.Key == "" {
		return TransformRule{}, fmt.Errorf("%s requires key", kind)
	}

	rule := TransformRule{Kind: kind, Key: rd.Key}
	if kind.NeedsValue() {
		if rd.Value == nil {
			return TransformRule{}, fmt.Errorf("%s requires value", kind)
		}
		if rule.Value, err = scalar.FromAny(rd.Value); err != nil {
			return TransformRule{}, fmt.Errorf("%s value: %w", kind, err)
		}
	}

	if kind == RuleMultiplyIfKey {
		if rule.Operand, err = ParseOperand(rd.Operand); err != nil {
			return TransformRule{}, err
		}
		if rd.TransformKey == "" {
			return TransformRule{}, fmt.Errorf("%s requires transform_key", kind)
		}
		rule.TransformKey = rd.TransformKey
		if rd.Multiplier == nil {
			return TransformRule{}, fmt.Errorf("%s requires multiplier", kind)
		}
		if rule.Multiplier, err = scalar.FromAny(rd.Multiplier); err != nil {
			return TransformRule{}, fmt.Errorf("%s multiplier: %w", kind, err)
		}
	}
	return rule, nil
}
