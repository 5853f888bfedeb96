package telegramprocessor

import (
	"fmt"

	"github.com/AndyTempel/victron-dlms-gird-meter/config"
	"github.com/AndyTempel/victron-dlms-gird-meter/errors"
)

// Config holds configuration for the telegram processor
type Config struct {
	InputSubject  string `json:"input_subject"`
	OutputSubject string `json:"output_subject"`
	ProfileID     string `json:"profile_id"`
	// ProfilesDir replaces the embedded profile documents when set.
	ProfilesDir string `json:"profiles_dir,omitempty"`
	// Stream, when set, makes readings go through JetStream. The stream is
	// created on start and captures OutputSubject.
	Stream string `json:"stream,omitempty"`
	// StateBucket, when set, receives the latest reading per telegram name.
	StateBucket string `json:"state_bucket,omitempty"`
}

// DefaultConfig returns the default configuration for the telegram processor
func DefaultConfig() Config {
	return Config{
		InputSubject:  "dlms.telegram.raw",
		OutputSubject: "dlms.meter.reading",
		ProfileID:     config.DefaultProfileID,
	}
}

// Validate checks the configuration after defaults have been applied.
func (c Config) Validate() error {
	switch {
	case c.InputSubject == "":
		return errors.WrapInvalid(
			fmt.Errorf("%w: input_subject is required", errors.ErrInvalidConfig),
			"TelegramProcessor", "Validate", "check input subject")
	case c.OutputSubject == "":
		return errors.WrapInvalid(
			fmt.Errorf("%w: output_subject is required", errors.ErrInvalidConfig),
			"TelegramProcessor", "Validate", "check output subject")
	case c.ProfileID == "":
		return errors.WrapInvalid(
			fmt.Errorf("%w: profile_id is required", errors.ErrInvalidConfig),
			"TelegramProcessor", "Validate", "check profile id")
	case c.InputSubject == c.OutputSubject:
		return errors.WrapInvalid(
			fmt.Errorf("%w: input and output subject are both %q", errors.ErrInvalidConfig, c.InputSubject),
			"TelegramProcessor", "Validate", "check subjects")
	}
	return nil
}
