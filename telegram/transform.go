package telegram

import (
	"log/slog"

	"github.com/AndyTempel/victron-dlms-gird-meter/profile"
	"github.com/AndyTempel/victron-dlms-gird-meter/scalar"
)

// Transform applies rules to rec in declared order and returns rec. A rule
// whose key is absent does nothing. A rule that cannot be applied to the
// value it finds (a string divided by a number, a division by zero, an
// unparseable conversion) leaves the record unchanged and is logged.
func Transform(rules []profile.TransformRule, rec Record, logger *slog.Logger) Record {
	if logger == nil {
		logger = slog.Default()
	}
	for i, rule := range rules {
		cur, ok := rec[rule.Key]
		if !ok {
			continue
		}

		key, next, err := applyRule(rule, cur, rec)
		if err != nil {
			logger.Warn("Transformation skipped",
				"index", i,
				"type", rule.Kind.String(),
				"key", rule.Key,
				"value", cur.String(),
				"error", err)
			continue
		}
		if key != "" {
			rec[key] = next
		}
	}
	return rec
}

// applyRule returns the key to write and its new value. An empty key means
// the rule did not fire.
func applyRule(rule profile.TransformRule, cur scalar.Value, rec Record) (string, scalar.Value, error) {
	var (
		next scalar.Value
		err  error
	)
	switch rule.Kind {
	case profile.RuleMultiply:
		next, err = scalar.Mul(cur, rule.Value)
	case profile.RuleAdd:
		next, err = scalar.Add(cur, rule.Value)
	case profile.RuleSubtract:
		next, err = scalar.Sub(cur, rule.Value)
	case profile.RuleDivide:
		next, err = scalar.Div(cur, rule.Value)
	case profile.RuleReplace:
		next = rule.Value
	case profile.RuleToInteger:
		next, err = scalar.ToInt(cur)
	case profile.RuleToString:
		next, err = scalar.ToString(cur)
	case profile.RuleToFloat:
		next, err = scalar.ToFloat(cur)
	case profile.RuleMultiplyIfKey:
		return multiplyIfKey(rule, cur, rec)
	default:
		return "", scalar.Value{}, nil
	}
	if err != nil {
		return "", scalar.Value{}, err
	}
	return rule.Key, next, nil
}

func multiplyIfKey(rule profile.TransformRule, cond scalar.Value, rec Record) (string, scalar.Value, error) {
	target, ok := rec[rule.TransformKey]
	if !ok {
		return "", scalar.Value{}, nil
	}

	holds, err := conditionHolds(rule.Operand, cond, rule.Value)
	if err != nil || !holds {
		return "", scalar.Value{}, err
	}

	next, err := scalar.Mul(target, rule.Multiplier)
	if err != nil {
		return "", scalar.Value{}, err
	}
	return rule.TransformKey, next, nil
}

// conditionHolds evaluates "a <op> b". EQ and NEQ are defined for every
// pair of values; ordering operands need both sides to be numbers or both
// to be strings.
func conditionHolds(op profile.Operand, a, b scalar.Value) (bool, error) {
	switch op {
	case profile.OperandEQ:
		return scalar.Equals(a, b), nil
	case profile.OperandNEQ:
		return !scalar.Equals(a, b), nil
	}

	c, err := scalar.Compare(a, b)
	if err != nil {
		return false, err
	}
	switch op {
	case profile.OperandGT:
		return c > 0, nil
	case profile.OperandGTE:
		return c >= 0, nil
	case profile.OperandLT:
		return c < 0, nil
	case profile.OperandLTE:
		return c <= 0, nil
	default:
		return false, nil
	}
}
