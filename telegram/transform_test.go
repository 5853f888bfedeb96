package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AndyTempel/victron-dlms-gird-meter/profile"
	"github.com/AndyTempel/victron-dlms-gird-meter/scalar"
)

func rule(kind profile.RuleKind, key string, value scalar.Value) profile.TransformRule {
	return profile.TransformRule{Kind: kind, Key: key, Value: value}
}

func ifKeyRule(op profile.Operand, value scalar.Value) profile.TransformRule {
	return profile.TransformRule{
		Kind:         profile.RuleMultiplyIfKey,
		Key:          "cond",
		Operand:      op,
		Value:        value,
		TransformKey: "X",
		Multiplier:   scalar.Int(-1),
	}
}

func TestTransform_Rules(t *testing.T) {
	tests := []struct {
		name string
		rule profile.TransformRule
		in   Record
		want Record
	}{
		{"multiply int", rule(profile.RuleMultiply, "K", scalar.Int(3)), Record{"K": scalar.Int(4)}, Record{"K": scalar.Int(12)}},
		{"multiply float promotes", rule(profile.RuleMultiply, "K", scalar.Float(0.5)), Record{"K": scalar.Int(3)}, Record{"K": scalar.Float(1.5)}},
		{"add", rule(profile.RuleAdd, "K", scalar.Int(1)), Record{"K": scalar.Int(1)}, Record{"K": scalar.Int(2)}},
		{"add strings", rule(profile.RuleAdd, "K", scalar.String("-x")), Record{"K": scalar.String("a")}, Record{"K": scalar.String("a-x")}},
		{"subtract", rule(profile.RuleSubtract, "K", scalar.Int(5)), Record{"K": scalar.Int(2)}, Record{"K": scalar.Int(-3)}},
		{"divide yields float", rule(profile.RuleDivide, "K", scalar.Int(10)), Record{"K": scalar.Int(2301)}, Record{"K": scalar.Float(230.1)}},
		{"divide by zero is skipped", rule(profile.RuleDivide, "K", scalar.Int(0)), Record{"K": scalar.Int(1)}, Record{"K": scalar.Int(1)}},
		{"string minus number is skipped", rule(profile.RuleSubtract, "K", scalar.Int(1)), Record{"K": scalar.String("a")}, Record{"K": scalar.String("a")}},
		{"bool counts as one", rule(profile.RuleAdd, "K", scalar.Int(1)), Record{"K": scalar.Bool(true)}, Record{"K": scalar.Int(2)}},
		{"replace", rule(profile.RuleReplace, "K", scalar.String("v")), Record{"K": scalar.Int(1)}, Record{"K": scalar.String("v")}},
		// REPLACE only fires when the key already exists.
		{"replace missing key", rule(profile.RuleReplace, "K", scalar.String("v")), Record{"O": scalar.Int(1)}, Record{"O": scalar.Int(1)}},
		{"missing key", rule(profile.RuleMultiply, "K", scalar.Int(2)), Record{"O": scalar.Int(1)}, Record{"O": scalar.Int(1)}},
		{"to integer truncates", rule(profile.RuleToInteger, "K", scalar.Value{}), Record{"K": scalar.Float(-2.7)}, Record{"K": scalar.Int(-2)}},
		{"to integer parses", rule(profile.RuleToInteger, "K", scalar.Value{}), Record{"K": scalar.String(" 42 ")}, Record{"K": scalar.Int(42)}},
		{"to integer unparseable", rule(profile.RuleToInteger, "K", scalar.Value{}), Record{"K": scalar.String("x")}, Record{"K": scalar.String("x")}},
		{"to string int", rule(profile.RuleToString, "K", scalar.Value{}), Record{"K": scalar.Int(7)}, Record{"K": scalar.String("7")}},
		{"to string whole float", rule(profile.RuleToString, "K", scalar.Value{}), Record{"K": scalar.Float(5)}, Record{"K": scalar.String("5.0")}},
		{"to string bool", rule(profile.RuleToString, "K", scalar.Value{}), Record{"K": scalar.Bool(false)}, Record{"K": scalar.String("False")}},
		{"to float", rule(profile.RuleToFloat, "K", scalar.Value{}), Record{"K": scalar.Int(3)}, Record{"K": scalar.Float(3)}},
		{"to float parses", rule(profile.RuleToFloat, "K", scalar.Value{}), Record{"K": scalar.String("2.5")}, Record{"K": scalar.Float(2.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transform([]profile.TransformRule{tt.rule}, tt.in, quietLogger())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransform_ReplaceIsIdempotent(t *testing.T) {
	r := rule(profile.RuleReplace, "K", scalar.Int(9))

	once := Transform([]profile.TransformRule{r}, Record{"K": scalar.Int(1)}, quietLogger())
	twice := Transform([]profile.TransformRule{r, r}, Record{"K": scalar.Int(1)}, quietLogger())
	assert.Equal(t, once, twice)
}

func TestTransform_RulesSeeEarlierResults(t *testing.T) {
	rules := []profile.TransformRule{
		rule(profile.RuleDivide, "K", scalar.Int(4)),
		rule(profile.RuleToInteger, "K", scalar.Value{}),
		rule(profile.RuleToString, "K", scalar.Value{}),
		rule(profile.RuleAdd, "K", scalar.String(" W")),
	}
	got := Transform(rules, Record{"K": scalar.Int(10)}, quietLogger())
	assert.Equal(t, scalar.String("2 W"), got["K"])
}

func TestTransform_MultiplyIfKey(t *testing.T) {
	tests := []struct {
		name string
		rule profile.TransformRule
		in   Record
		want scalar.Value
	}{
		{"GT holds", ifKeyRule(profile.OperandGT, scalar.Int(0)), Record{"cond": scalar.Int(1), "X": scalar.Int(5)}, scalar.Int(-5)},
		{"GT fails", ifKeyRule(profile.OperandGT, scalar.Int(0)), Record{"cond": scalar.Int(-1), "X": scalar.Int(5)}, scalar.Int(5)},
		{"GTE boundary", ifKeyRule(profile.OperandGTE, scalar.Int(0)), Record{"cond": scalar.Int(0), "X": scalar.Int(5)}, scalar.Int(-5)},
		{"LT", ifKeyRule(profile.OperandLT, scalar.Float(0.5)), Record{"cond": scalar.Int(0), "X": scalar.Float(2.5)}, scalar.Float(-2.5)},
		{"LTE fails", ifKeyRule(profile.OperandLTE, scalar.Int(0)), Record{"cond": scalar.Int(1), "X": scalar.Int(5)}, scalar.Int(5)},
		{"EQ across kinds", ifKeyRule(profile.OperandEQ, scalar.Int(1)), Record{"cond": scalar.Float(1), "X": scalar.Int(5)}, scalar.Int(-5)},
		{"EQ strings", ifKeyRule(profile.OperandEQ, scalar.String("rev")), Record{"cond": scalar.String("rev"), "X": scalar.Int(5)}, scalar.Int(-5)},
		{"EQ string and number", ifKeyRule(profile.OperandEQ, scalar.Int(1)), Record{"cond": scalar.String("1"), "X": scalar.Int(5)}, scalar.Int(5)},
		{"NEQ string and number", ifKeyRule(profile.OperandNEQ, scalar.Int(1)), Record{"cond": scalar.String("1"), "X": scalar.Int(5)}, scalar.Int(-5)},
		{"GT string and number", ifKeyRule(profile.OperandGT, scalar.Int(0)), Record{"cond": scalar.String("1"), "X": scalar.Int(5)}, scalar.Int(5)},
		{"GT strings", ifKeyRule(profile.OperandGT, scalar.String("a")), Record{"cond": scalar.String("b"), "X": scalar.Int(5)}, scalar.Int(-5)},
		{"bool condition", ifKeyRule(profile.OperandEQ, scalar.Int(1)), Record{"cond": scalar.Bool(true), "X": scalar.Int(5)}, scalar.Int(-5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transform([]profile.TransformRule{tt.rule}, tt.in, quietLogger())
			assert.Equal(t, tt.want, got["X"])
			assert.Equal(t, tt.in["cond"], got["cond"])
		})
	}
}

func TestTransform_MultiplyIfKeyNeedsBothKeys(t *testing.T) {
	r := ifKeyRule(profile.OperandGT, scalar.Int(0))

	got := Transform([]profile.TransformRule{r}, Record{"cond": scalar.Int(1)}, quietLogger())
	assert.Equal(t, Record{"cond": scalar.Int(1)}, got)

	got = Transform([]profile.TransformRule{r}, Record{"X": scalar.Int(5)}, quietLogger())
	assert.Equal(t, Record{"X": scalar.Int(5)}, got)
}
