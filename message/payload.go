package message

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/AndyTempel/victron-dlms-gird-meter/errors"
)

// Payload is the typed body of a message.
type Payload interface {
	// Schema returns the payload's message type.
	Schema() Type
	// Validate checks required fields.
	Validate() error

	json.Marshaler
	json.Unmarshaler
}

// PayloadFactory returns an empty payload ready to be unmarshalled into.
type PayloadFactory func() Payload

var (
	payloadMu       sync.RWMutex
	payloadRegistry = make(map[string]PayloadFactory)
)

// RegisterPayload makes a payload type decodable by BaseMessage.UnmarshalJSON.
func RegisterPayload(t Type, factory PayloadFactory) error {
	if !t.IsValid() || factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "PayloadRegistry", "RegisterPayload",
			fmt.Sprintf("register %q", t.Key()))
	}

	payloadMu.Lock()
	defer payloadMu.Unlock()
	if _, exists := payloadRegistry[t.Key()]; exists {
		return errors.WrapInvalid(fmt.Errorf("payload type %q is already registered", t.Key()),
			"PayloadRegistry", "RegisterPayload", "duplicate payload check")
	}
	payloadRegistry[t.Key()] = factory
	return nil
}

// CreatePayload returns a new payload for t, or nil when t is unknown.
func CreatePayload(t Type) Payload {
	payloadMu.RLock()
	factory, ok := payloadRegistry[t.Key()]
	payloadMu.RUnlock()
	if !ok {
		return nil
	}
	return factory()
}

// RegisteredPayloads lists the registered type keys, sorted.
func RegisteredPayloads() []string {
	payloadMu.RLock()
	defer payloadMu.RUnlock()
	keys := make([]string, 0, len(payloadRegistry))
	for k := range payloadRegistry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
