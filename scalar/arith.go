package scalar

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrIncompatible is returned when an operation is not defined for the
	// kinds of its operands.
	ErrIncompatible = errors.New("incompatible operand kinds")
	// ErrDivideByZero is returned by Div for a zero divisor.
	ErrDivideByZero = errors.New("division by zero")
)

// integral reports whether both operands are integers or booleans, in which
// case arithmetic stays in int64 unless the result overflows.
func integral(a, b Value) bool {
	return a.kind != KindFloat && b.kind != KindFloat
}

// addInt, subInt and mulInt report ok=false when the int64 result would wrap;
// callers then fall back to float arithmetic.
func addInt(a, b int64) (int64, bool) {
	r := a + b
	return r, (r > a) == (b > 0)
}

func subInt(a, b int64) (int64, bool) {
	r := a - b
	return r, (r < a) == (b > 0)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || r/b != a {
		return r, false
	}
	return r, true
}

func incompatible(op string, a, b Value) error {
	return fmt.Errorf("%s %s %s: %w", a.kind, op, b.kind, ErrIncompatible)
}

// Add returns a+b. Two strings concatenate.
func Add(a, b Value) (Value, error) {
	if a.kind == KindString && b.kind == KindString {
		return String(a.s + b.s), nil
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return Value{}, incompatible("+", a, b)
	}
	if integral(a, b) {
		if r, ok := addInt(a.i, b.i); ok {
			return Int(r), nil
		}
	}
	x, _ := a.Number()
	y, _ := b.Number()
	return Float(x + y), nil
}

// Sub returns a-b.
func Sub(a, b Value) (Value, error) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Value{}, incompatible("-", a, b)
	}
	if integral(a, b) {
		if r, ok := subInt(a.i, b.i); ok {
			return Int(r), nil
		}
	}
	x, _ := a.Number()
	y, _ := b.Number()
	return Float(x - y), nil
}

// Mul returns a*b.
func Mul(a, b Value) (Value, error) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Value{}, incompatible("*", a, b)
	}
	if integral(a, b) {
		if r, ok := mulInt(a.i, b.i); ok {
			return Int(r), nil
		}
	}
	x, _ := a.Number()
	y, _ := b.Number()
	return Float(x * y), nil
}

// Div returns a/b as a float, whatever the operand kinds.
func Div(a, b Value) (Value, error) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Value{}, incompatible("/", a, b)
	}
	x, _ := a.Number()
	y, _ := b.Number()
	if y == 0 {
		return Value{}, ErrDivideByZero
	}
	return Float(x / y), nil
}

// Equals reports value equality across numeric kinds (1 == 1.0 == true).
// A string never equals a number.
func Equals(a, b Value) bool {
	if a.IsNumeric() && b.IsNumeric() {
		if integral(a, b) {
			return a.i == b.i
		}
		x, _ := a.Number()
		y, _ := b.Number()
		return x == y
	}
	return a.kind == b.kind && a.kind == KindString && a.s == b.s
}

// Compare orders a and b, returning -1, 0 or +1. Numbers compare with
// numbers and strings with strings; anything else is ErrIncompatible.
func Compare(a, b Value) (int, error) {
	switch {
	case a.IsNumeric() && b.IsNumeric():
		if integral(a, b) {
			return cmpOrdered(a.i, b.i), nil
		}
		x, _ := a.Number()
		y, _ := b.Number()
		return cmpOrdered(x, y), nil
	case a.kind == KindString && b.kind == KindString:
		return strings.Compare(a.s, b.s), nil
	default:
		return 0, incompatible("<=>", a, b)
	}
}

func cmpOrdered[T int64 | float64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// ToInt converts v to an integer. Floats truncate toward zero and strings
// must hold a decimal integer.
func ToInt(v Value) (Value, error) {
	switch v.kind {
	case KindInt:
		return v, nil
	case KindBool:
		return Int(v.i), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) || math.Abs(v.f) >= math.MaxInt64 {
			return Value{}, fmt.Errorf("cannot convert %v to int", v.f)
		}
		return Int(int64(v.f)), nil
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("cannot convert %q to int: %w", v.s, err)
		}
		return Int(i), nil
	default:
		return Value{}, fmt.Errorf("cannot convert %s to int: %w", v.kind, ErrIncompatible)
	}
}

// ToFloat converts v to a float. Strings must hold a decimal number.
func ToFloat(v Value) (Value, error) {
	switch v.kind {
	case KindFloat:
		return v, nil
	case KindInt, KindBool:
		return Float(float64(v.i)), nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return Value{}, fmt.Errorf("cannot convert %q to float: %w", v.s, err)
		}
		return Float(f), nil
	default:
		return Value{}, fmt.Errorf("cannot convert %s to float: %w", v.kind, ErrIncompatible)
	}
}

// ToString converts v to its textual form.
func ToString(v Value) (Value, error) {
	if !v.IsValid() {
		return Value{}, fmt.Errorf("cannot convert invalid value: %w", ErrIncompatible)
	}
	return String(v.String()), nil
}
