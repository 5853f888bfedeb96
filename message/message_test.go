package message

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndyTempel/victron-dlms-gird-meter/errors"
	"github.com/AndyTempel/victron-dlms-gird-meter/scalar"
	"github.com/AndyTempel/victron-dlms-gird-meter/telegram"
)

func TestType(t *testing.T) {
	assert.Equal(t, "dlms.reading.v1", ReadingType.Key())
	assert.True(t, ReadingType.IsValid())
	assert.False(t, Type{Domain: "dlms"}.IsValid())
	assert.True(t, ReadingType.Equal(Type{Domain: "dlms", Category: "reading", Version: "v1"}))
	assert.Equal(t, []string{"dlms.reading.v1", "dlms.telegram.v1"}, RegisteredPayloads())
}

func TestBaseMessage_RoundTrip(t *testing.T) {
	created := time.UnixMilli(1700000000123)
	reading := &MeterReading{
		Profile: "si-sodo-reduxi",
		Name:    "reduxi",
		Data: map[string]scalar.Value{
			"SERIAL_NUMBER": scalar.String("SN1"),
			"VOLTAGE_L1":    scalar.Float(230.1),
			"BREAKER_STATE": scalar.Int(1),
		},
		Victron: map[string]any{"/Ac/L1/Voltage": 230.1},
	}
	msg := NewBaseMessage(reading, "dlms-meter", WithTime(created))
	require.NoError(t, msg.Validate())
	assert.Equal(t, ReadingType, msg.Type())
	assert.NotEmpty(t, msg.ID())

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded BaseMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, msg.ID(), decoded.ID())
	assert.Equal(t, ReadingType, decoded.Type())
	assert.Equal(t, "dlms-meter", decoded.Meta().Source())
	assert.Equal(t, created.UnixMilli(), decoded.Meta().CreatedAt().UnixMilli())

	got, ok := decoded.Payload().(*MeterReading)
	require.True(t, ok)
	assert.Equal(t, reading.Data, got.Data)
	assert.Equal(t, msg.Hash(), decoded.Hash())
}

func TestBaseMessage_TelegramPayload(t *testing.T) {
	raw := `{"id":"m1","type":{"domain":"dlms","category":"telegram","version":"v1"},
		"payload":{"structure":{"qty":2,"fields":[{"tag":"UInt8","value":"05"},{"tag":"Boolean","value":"True"}]}},
		"meta":{"created_at":0,"received_at":0,"source":"listener"}}`

	var msg BaseMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	require.NoError(t, msg.Validate())

	p, ok := msg.Payload().(*TelegramPayload)
	require.True(t, ok)
	assert.Equal(t, telegram.Structure{
		Qty:    2,
		Fields: []telegram.Field{{Tag: "UInt8", Raw: "05"}, {Tag: "Boolean", Raw: "True"}},
	}, p.Structure)
	assert.True(t, msg.Meta().CreatedAt().IsZero())
}

func TestBaseMessage_Errors(t *testing.T) {
	var msg BaseMessage
	err := json.Unmarshal([]byte(`{"type":{"domain":"x","category":"y","version":"v1"},"payload":{}}`), &msg)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	empty := NewBaseMessage(&MeterReading{}, "test")
	assert.True(t, errors.IsInvalid(empty.Validate()))

	assert.Error(t, (&TelegramPayload{}).Validate())
	assert.Error(t, RegisterPayload(ReadingType, func() Payload { return &MeterReading{} }))
}
