package message

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AndyTempel/victron-dlms-gird-meter/errors"
)

// BaseMessage pairs a payload with an id and metadata. It is immutable after
// construction.
type BaseMessage struct {
	id      string
	msgType Type
	payload Payload
	meta    Meta
}

// Option configures NewBaseMessage.
type Option func(*BaseMessage)

// WithTime sets the creation time instead of time.Now.
func WithTime(createdAt time.Time) Option {
	return func(m *BaseMessage) {
		m.meta = NewDefaultMeta(createdAt, m.meta.Source())
	}
}

// WithMeta replaces the metadata.
func WithMeta(meta Meta) Option {
	return func(m *BaseMessage) {
		m.meta = meta
	}
}

// NewBaseMessage builds a message for payload. The type is taken from the
// payload's schema.
//
//	msg := message.NewBaseMessage(reading, "dlms-meter")
func NewBaseMessage(payload Payload, source string, opts ...Option) *BaseMessage {
	m := &BaseMessage{
		id:      uuid.New().String(),
		msgType: payload.Schema(),
		payload: payload,
		meta:    NewDefaultMeta(time.Now(), source),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *BaseMessage) ID() string       { return m.id }
func (m *BaseMessage) Type() Type       { return m.msgType }
func (m *BaseMessage) Payload() Payload { return m.payload }
func (m *BaseMessage) Meta() Meta       { return m.meta }

// Hash returns the SHA-256 of the type key and payload JSON.
func (m *BaseMessage) Hash() string {
	h := sha256.New()
	h.Write([]byte(m.msgType.Key()))
	if data, err := m.payload.MarshalJSON(); err == nil {
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Validate checks the type, metadata and payload.
func (m *BaseMessage) Validate() error {
	if !m.msgType.IsValid() {
		return errors.WrapInvalid(errors.ErrInvalidData, "BaseMessage", "Validate",
			fmt.Sprintf("invalid message type: %s", m.msgType))
	}
	if m.payload == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "BaseMessage", "Validate", "payload cannot be nil")
	}
	if err := m.payload.Validate(); err != nil {
		return errors.WrapInvalid(err, "BaseMessage", "Validate", "invalid payload")
	}
	if m.meta == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "BaseMessage", "Validate", "meta cannot be nil")
	}
	return nil
}

type wireMeta struct {
	CreatedAt  int64  `json:"created_at"`
	ReceivedAt int64  `json:"received_at"`
	Source     string `json:"source"`
}

type wireFormat struct {
	ID      string          `json:"id"`
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Meta    wireMeta        `json:"meta"`
}

// MarshalJSON renders the wire format with times in Unix milliseconds.
func (m *BaseMessage) MarshalJSON() ([]byte, error) {
	payloadData, err := m.payload.MarshalJSON()
	if err != nil {
		return nil, errors.WrapInvalid(err, "BaseMessage", "MarshalJSON", "marshal payload")
	}
	return json.Marshal(wireFormat{
		ID:      m.id,
		Type:    m.msgType,
		Payload: payloadData,
		Meta: wireMeta{
			CreatedAt:  unixMs(m.meta.CreatedAt()),
			ReceivedAt: unixMs(m.meta.ReceivedAt()),
			Source:     m.meta.Source(),
		},
	})
}

// UnmarshalJSON decodes the wire format. The payload type must have been
// registered with RegisterPayload.
func (m *BaseMessage) UnmarshalJSON(data []byte) error {
	var wire wireFormat
	if err := json.Unmarshal(data, &wire); err != nil {
		return errors.WrapInvalid(err, "BaseMessage", "UnmarshalJSON", "unmarshal wire format")
	}

	payload := CreatePayload(wire.Type)
	if payload == nil {
		return errors.WrapInvalid(fmt.Errorf("unregistered payload type: %s", wire.Type),
			"BaseMessage", "UnmarshalJSON", "payload type lookup")
	}
	if err := json.Unmarshal(wire.Payload, payload); err != nil {
		return errors.WrapInvalid(err, "BaseMessage", "UnmarshalJSON", "unmarshal payload")
	}

	m.id = wire.ID
	m.msgType = wire.Type
	m.payload = payload
	m.meta = NewDefaultMetaWithReceivedAt(
		fromUnixMs(wire.Meta.CreatedAt), fromUnixMs(wire.Meta.ReceivedAt), wire.Meta.Source)
	return nil
}
