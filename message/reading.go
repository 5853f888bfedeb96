package message

import (
	"encoding/json"

	"github.com/AndyTempel/victron-dlms-gird-meter/errors"
	"github.com/AndyTempel/victron-dlms-gird-meter/scalar"
	"github.com/AndyTempel/victron-dlms-gird-meter/telegram"
)

func init() {
	mustRegister(ReadingType, func() Payload { return &MeterReading{} })
	mustRegister(TelegramType, func() Payload { return &TelegramPayload{} })
}

func mustRegister(t Type, factory PayloadFactory) {
	if err := RegisterPayload(t, factory); err != nil {
		panic("failed to register " + t.Key() + " payload: " + err.Error())
	}
}

// MeterReading is one processed telegram (dlms.reading.v1).
type MeterReading struct {
	// Profile is the id of the profile that decoded the telegram.
	Profile string `json:"profile"`
	// Name is the telegram definition that matched.
	Name string                  `json:"name"`
	Data map[string]scalar.Value `json:"data"`
	// Victron holds the readings that have a Victron grid meter path, keyed
	// by that path and already scaled.
	Victron map[string]any `json:"victron,omitempty"`
	// Missing lists required keys of the profile the telegram did not carry.
	Missing []string `json:"missing,omitempty"`
}

// NewMeterReading builds a reading from an engine result.
func NewMeterReading(profileID string, res telegram.Result) *MeterReading {
	return &MeterReading{
		Profile: profileID,
		Name:    res.Name,
		Data:    res.Data,
	}
}

func (r *MeterReading) Schema() Type { return ReadingType }

func (r *MeterReading) Validate() error {
	if r.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "MeterReading", "Validate", "name is required")
	}
	if r.Data == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "MeterReading", "Validate", "data cannot be nil")
	}
	return nil
}

func (r *MeterReading) MarshalJSON() ([]byte, error) {
	type alias MeterReading
	return json.Marshal((*alias)(r))
}

func (r *MeterReading) UnmarshalJSON(data []byte) error {
	type alias MeterReading
	return json.Unmarshal(data, (*alias)(r))
}

// TelegramPayload carries a decoded structure as JSON (dlms.telegram.v1),
// for producers that do not emit the listener's XML.
type TelegramPayload struct {
	Structure telegram.Structure `json:"structure"`
}

func (p *TelegramPayload) Schema() Type { return TelegramType }

func (p *TelegramPayload) Validate() error {
	if len(p.Structure.Fields) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidData, "TelegramPayload", "Validate", "structure has no fields")
	}
	return nil
}

func (p *TelegramPayload) MarshalJSON() ([]byte, error) {
	type alias TelegramPayload
	return json.Marshal((*alias)(p))
}

func (p *TelegramPayload) UnmarshalJSON(data []byte) error {
	type alias TelegramPayload
	return json.Unmarshal(data, (*alias)(p))
}
