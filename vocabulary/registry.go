package vocabulary

import (
	"sort"
	"sync"

	"github.com/AndyTempel/victron-dlms-gird-meter/scalar"
)

// ReadingMetadata describes one reading name.
type ReadingMetadata struct {
	Name        string
	Description string
	Units       string

	// VictronPath is the D-Bus path of a Victron grid meter the reading is
	// published on. Empty when the reading has no Victron equivalent.
	VictronPath string
	// Scale converts the reading to the unit the Victron path expects.
	Scale float64
}

var (
	registryMu      sync.RWMutex
	readingRegistry = make(map[string]ReadingMetadata)
)

// Option configures a registered reading.
type Option func(*ReadingMetadata)

// WithDescription sets the human-readable description.
func WithDescription(desc string) Option {
	return func(m *ReadingMetadata) {
		m.Description = desc
	}
}

// WithUnits sets the measurement unit, e.g. "V", "Wh".
func WithUnits(units string) Option {
	return func(m *ReadingMetadata) {
		m.Units = units
	}
}

// WithVictronPath maps the reading onto a Victron D-Bus path. scale is
// applied to numeric values before publishing.
func WithVictronPath(path string, scale float64) Option {
	return func(m *ReadingMetadata) {
		m.VictronPath = path
		m.Scale = scale
	}
}

// Register records metadata for a reading name. A later registration of the
// same name replaces the earlier one.
func Register(name string, opts ...Option) {
	meta := ReadingMetadata{Name: name, Scale: 1}
	for _, opt := range opts {
		opt(&meta)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	readingRegistry[name] = meta
}

// Lookup returns the metadata registered for name.
func Lookup(name string) (ReadingMetadata, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	meta, ok := readingRegistry[name]
	return meta, ok
}

// Registered returns every registered reading name, sorted.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(readingRegistry))
	for name := range readingRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VictronValues maps readings onto Victron D-Bus paths. Readings without a
// path are left out. Numeric values are scaled; a scale other than 1 turns
// integers into floats.
func VictronValues(readings map[string]scalar.Value) map[string]any {
	out := make(map[string]any)
	registryMu.RLock()
	defer registryMu.RUnlock()

	for name, v := range readings {
		meta, ok := readingRegistry[name]
		if !ok || meta.VictronPath == "" {
			continue
		}
		if n, numeric := v.Number(); numeric && meta.Scale != 1 {
			out[meta.VictronPath] = n * meta.Scale
			continue
		}
		out[meta.VictronPath] = v.Any()
	}
	return out
}
