// Package scalar holds the value type shared by decoded telegram records and
// profile transformation rules.
//
// A Value is one of int64, float64, string or bool. Arithmetic follows the
// conventions the meter profiles were written against: two integers stay an
// integer, any float operand promotes the result to float, division always
// yields a float, booleans count as 0 and 1, and two strings concatenate on
// Add. Operations that are not defined for their operands return
// ErrIncompatible instead of panicking.
package scalar
