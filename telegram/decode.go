package telegram

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/AndyTempel/victron-dlms-gird-meter/profile"
	"github.com/AndyTempel/victron-dlms-gird-meter/scalar"
)

// DecodeField converts a raw field value according to its declared type.
//
// Boolean is permissive: only the literal "True" decodes to true and every
// other raw value, including malformed ones, decodes to false.
func DecodeField(t profile.FieldType, raw string) (scalar.Value, error) {
	switch t {
	case profile.FieldOctetString:
		return decodeOctetString(raw)
	case profile.FieldUInt32, profile.FieldUInt16, profile.FieldUInt8, profile.FieldEnum:
		return decodeUnsigned(raw)
	case profile.FieldBoolean:
		return scalar.Bool(raw == "True"), nil
	default:
		return scalar.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedFieldType, t)
	}
}

// decodeOctetString accepts whitespace between bytes ("41 42 43") but not
// inside one.
func decodeOctetString(raw string) (scalar.Value, error) {
	var b []byte
	for _, group := range strings.Fields(raw) {
		chunk, err := hex.DecodeString(group)
		if err != nil {
			return scalar.Value{}, fmt.Errorf("%w: octet string %q: %v", ErrMalformedValue, raw, err)
		}
		b = append(b, chunk...)
	}
	for i, c := range b {
		if c > 0x7f {
			return scalar.Value{}, fmt.Errorf("%w: octet string %q: non-ASCII byte 0x%02x at offset %d",
				ErrMalformedValue, raw, c, i)
		}
	}
	return scalar.String(string(b)), nil
}

func decodeUnsigned(raw string) (scalar.Value, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return scalar.Value{}, fmt.Errorf("%w: integer %q: %v", ErrMalformedValue, raw, err)
	}
	if n > math.MaxInt64 {
		return scalar.Value{}, fmt.Errorf("%w: integer %q exceeds int64", ErrMalformedValue, raw)
	}
	return scalar.Int(int64(n)), nil
}
