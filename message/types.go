package message

import "fmt"

// Type identifies a payload schema as domain.category.version.
type Type struct {
	Domain   string `json:"domain"`
	Category string `json:"category"`
	Version  string `json:"version"`
}

// Key returns the dotted form, e.g. "dlms.reading.v1".
func (mt Type) Key() string {
	return fmt.Sprintf("%s.%s.%s", mt.Domain, mt.Category, mt.Version)
}

func (mt Type) String() string {
	return mt.Key()
}

// IsValid checks that every part is set.
func (mt Type) IsValid() bool {
	return mt.Domain != "" && mt.Category != "" && mt.Version != ""
}

// Equal compares two types part by part.
func (mt Type) Equal(other Type) bool {
	return mt == other
}

// Payload types published and consumed by the meter service.
var (
	ReadingType  = Type{Domain: "dlms", Category: "reading", Version: "v1"}
	TelegramType = Type{Domain: "dlms", Category: "telegram", Version: "v1"}
)
