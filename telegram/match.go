package telegram

import (
	"fmt"

	"github.com/AndyTempel/victron-dlms-gird-meter/profile"
)

// Matcher picks the definition of a profile that describes a structure.
type Matcher struct {
	profile *profile.Profile
}

// NewMatcher returns a Matcher over the indexes built by Catalog.Select.
func NewMatcher(p *profile.Profile) *Matcher {
	return &Matcher{profile: p}
}

// Match returns the definition whose length is fieldCount when that length
// is unique within the profile, and otherwise the definition registered for
// the fingerprint of tags.
func (m *Matcher) Match(fieldCount int, tags []string) (*profile.TelegramDefinition, error) {
	if def, ok := m.profile.DefinitionByLength(fieldCount); ok {
		return def, nil
	}
	if name, ok := m.profile.Index.Lookup(profile.Fingerprint(tags)); ok {
		if def, ok := m.profile.Definition(name); ok {
			return def, nil
		}
	}
	return nil, fmt.Errorf("%w: profile %q, %d fields", ErrNoMatch, m.profile.ID(), fieldCount)
}
