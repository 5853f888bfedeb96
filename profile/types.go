package profile

import (
	"fmt"

	"github.com/AndyTempel/victron-dlms-gird-meter/scalar"
)

// FieldType is the declared wire type of one telegram field.
type FieldType int

// Supported field types. FieldUnknown marks a declared type the decoder does
// not handle; the definition keeps the declared tag text.
const (
	FieldUnknown FieldType = iota
	FieldOctetString
	FieldUInt32
	FieldUInt16
	FieldUInt8
	FieldEnum
	FieldBoolean
)

var fieldTypeTags = map[FieldType]string{
	FieldOctetString: "OctetString",
	FieldUInt32:      "UInt32",
	FieldUInt16:      "UInt16",
	FieldUInt8:       "UInt8",
	FieldEnum:        "Enum",
	FieldBoolean:     "Boolean",
}

// ParseFieldType maps a wire tag to its FieldType. Unknown tags return
// FieldUnknown and false.
func ParseFieldType(tag string) (FieldType, bool) {
	for ft, name := range fieldTypeTags {
		if name == tag {
			return ft, true
		}
	}
	return FieldUnknown, false
}

// String returns the wire tag of the type.
func (t FieldType) String() string {
	if name, ok := fieldTypeTags[t]; ok {
		return name
	}
	return "Unknown"
}

// FieldDefinition declares one positional field of a telegram.
type FieldDefinition struct {
	Position int
	Name     string
	Type     FieldType
	// Tag is the type as written in the profile document. It differs from
	// Type.String() only for FieldUnknown.
	Tag string
}

// TelegramDefinition is one record layout of a profile.
type TelegramDefinition struct {
	Name     string
	Length   int
	Contents []FieldDefinition

	byPosition map[int]int
}

func newTelegramDefinition(name string, length int, contents []FieldDefinition) TelegramDefinition {
	def := TelegramDefinition{
		Name:       name,
		Length:     length,
		Contents:   contents,
		byPosition: make(map[int]int, len(contents)),
	}
	for i, f := range contents {
		if _, dup := def.byPosition[f.Position]; !dup {
			def.byPosition[f.Position] = i
		}
	}
	return def
}

// Field returns the field declared at position.
func (d *TelegramDefinition) Field(position int) (FieldDefinition, bool) {
	i, ok := d.byPosition[position]
	if !ok {
		return FieldDefinition{}, false
	}
	return d.Contents[i], true
}

// Tags returns the declared type tags in wire order. Contents listed out of
// order are sorted by position; when positions do not cover 0..n-1 the
// contents order is used as is.
func (d *TelegramDefinition) Tags() []string {
	tags := make([]string, len(d.Contents))
	for pos := range d.Contents {
		i, ok := d.byPosition[pos]
		if !ok {
			for j, f := range d.Contents {
				tags[j] = f.Tag
			}
			return tags
		}
		tags[pos] = d.Contents[i].Tag
	}
	return tags
}

// RuleKind selects the behaviour of a TransformRule.
type RuleKind int

// Transformation kinds.
const (
	RuleMultiply RuleKind = iota + 1
	RuleAdd
	RuleSubtract
	RuleDivide
	RuleReplace
	RuleToInteger
	RuleToString
	RuleToFloat
	RuleMultiplyIfKey
)

var ruleKindNames = map[RuleKind]string{
	RuleMultiply:      "MULTIPLY",
	RuleAdd:           "ADD",
	RuleSubtract:      "SUBTRACT",
	RuleDivide:        "DIVIDE",
	RuleReplace:       "REPLACE",
	RuleToInteger:     "TO_INTEGER",
	RuleToString:      "TO_STRING",
	RuleToFloat:       "TO_FLOAT",
	RuleMultiplyIfKey: "MULTIPLY_IF_KEY",
}

// ParseRuleKind maps a document type name to a RuleKind.
func ParseRuleKind(name string) (RuleKind, error) {
	for k, n := range ruleKindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown transformation type %q", name)
}

func (k RuleKind) String() string {
	if n, ok := ruleKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("RuleKind(%d)", int(k))
}

// NeedsValue reports whether rules of this kind carry a value operand.
func (k RuleKind) NeedsValue() bool {
	switch k {
	case RuleMultiply, RuleAdd, RuleSubtract, RuleDivide, RuleReplace, RuleMultiplyIfKey:
		return true
	default:
		return false
	}
}

// Operand is the comparison used by MULTIPLY_IF_KEY.
type Operand int

// Comparison operands.
const (
	OperandGT Operand = iota + 1
	OperandGTE
	OperandLT
	OperandLTE
	OperandEQ
	OperandNEQ
)

var operandNames = map[Operand]string{
	OperandGT:  "GT",
	OperandGTE: "GTE",
	OperandLT:  "LT",
	OperandLTE: "LTE",
	OperandEQ:  "EQ",
	OperandNEQ: "NEQ",
}

// ParseOperand maps a document operand name to an Operand.
func ParseOperand(name string) (Operand, error) {
	for o, n := range operandNames {
		if n == name {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown operand %q", name)
}

func (o Operand) String() string {
	if n, ok := operandNames[o]; ok {
		return n
	}
	return fmt.Sprintf("Operand(%d)", int(o))
}

// TransformRule is one declarative transformation. Value is set for the
// arithmetic kinds, REPLACE and MULTIPLY_IF_KEY; Operand, TransformKey and
// Multiplier only for MULTIPLY_IF_KEY.
type TransformRule struct {
	Kind         RuleKind
	Key          string
	Value        scalar.Value
	Operand      Operand
	TransformKey string
	Multiplier   scalar.Value
}

// Info is the descriptive header of a profile document.
type Info struct {
	ID                  string   `yaml:"id" json:"id"`
	Name                string   `yaml:"name" json:"name"`
	Distributer         string   `yaml:"distributer" json:"distributer"`
	Country             string   `yaml:"country" json:"country"`
	SupportedInterfaces []string `yaml:"supported_interfaces" json:"supported_interfaces"`
	MultipleTelegrams   bool     `yaml:"multiple_telegrams" json:"multiple_telegrams"`
	RequiredKeys        []string `yaml:"required_keys" json:"required_keys"`
}

// Profile is the immutable, selected configuration for one meter.
type Profile struct {
	Version     string
	Info        Info
	Definitions []TelegramDefinition
	Rules       []TransformRule
	Index       MatchIndex
}

// ID returns the profile identifier.
func (p *Profile) ID() string { return p.Info.ID }

// Definition returns the definition called name.
func (p *Profile) Definition(name string) (*TelegramDefinition, bool) {
	i, ok := p.Index.byName[name]
	if !ok {
		return nil, false
	}
	return &p.Definitions[i], true
}

// DefinitionByLength returns the definition whose length is unique and
// equal to n.
func (p *Profile) DefinitionByLength(n int) (*TelegramDefinition, bool) {
	if !p.Index.LengthUnique(n) {
		return nil, false
	}
	i, ok := p.Index.byLength[n]
	if !ok {
		return nil, false
	}
	return &p.Definitions[i], true
}
