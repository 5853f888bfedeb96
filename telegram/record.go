package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/AndyTempel/victron-dlms-gird-meter/profile"
	"github.com/AndyTempel/victron-dlms-gird-meter/scalar"
)

// Record maps field and quantity names to values. A Record is owned by the
// Process call that created it.
type Record map[string]scalar.Value

// Keys returns the record's keys in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is present.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Plain returns the record as plain Go values.
func (r Record) Plain() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Any()
	}
	return out
}

// MarshalJSON renders the record as a flat JSON object.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]scalar.Value(r))
}

// DecodeRecord decodes every child of a structure against def. Fields whose
// declared type is unsupported are omitted and logged; any structural or
// value error aborts the record.
func DecodeRecord(def *profile.TelegramDefinition, fields []Field, logger *slog.Logger) (Record, error) {
	rec := make(Record, len(fields))
	for i, f := range fields {
		fd, ok := def.Field(i)
		if !ok {
			return nil, &DecodeError{Record: def.Name, Position: i, Actual: f.Tag, Err: ErrPositionMismatch}
		}
		if f.Tag != fd.Tag {
			return nil, &DecodeError{
				Record:   def.Name,
				Position: i,
				Field:    fd.Name,
				Expected: fd.Tag,
				Actual:   f.Tag,
				Err:      ErrTagMismatch,
			}
		}

		v, err := DecodeField(fd.Type, f.Raw)
		if errors.Is(err, ErrUnsupportedFieldType) {
			if logger != nil {
				logger.Warn("Skipping field with unsupported type",
					"telegram", def.Name,
					"position", i,
					"field", fd.Name,
					"type", fd.Tag,
					"raw", f.Raw)
			}
			continue
		}
		if err != nil {
			return nil, &DecodeError{
				Record:   def.Name,
				Position: i,
				Field:    fd.Name,
				Expected: fd.Tag,
				Actual:   f.Raw,
				Err:      fmt.Errorf("%w: %w", ErrFieldDecode, err),
			}
		}
		rec[fd.Name] = v
	}
	return rec, nil
}
