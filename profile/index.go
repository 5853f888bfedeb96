package profile

import (
	"log/slog"

	"github.com/cespare/xxhash/v2"
)

// tagSeparator keeps "UInt8"+"UInt16" distinct from "UInt8U"+"Int16".
const tagSeparator = "\x1f"

// Fingerprint hashes an ordered sequence of field type tags.
func Fingerprint(tags []string) uint64 {
	d := xxhash.New()
	for _, tag := range tags {
		_, _ = d.WriteString(tag)
		_, _ = d.WriteString(tagSeparator)
	}
	return d.Sum64()
}

// MatchIndex holds the lookup tables used to pick a telegram definition.
type MatchIndex struct {
	uniqueLength map[int]bool
	fingerprints map[uint64]string
	byLength     map[int]int
	byName       map[string]int
}

// buildIndex indexes defs. A length seen once is unique; a second
// definition with the same length marks it ambiguous. When two definitions
// share a fingerprint the later one wins.
func buildIndex(defs []TelegramDefinition, logger *slog.Logger) MatchIndex {
	ix := MatchIndex{
		uniqueLength: make(map[int]bool, len(defs)),
		fingerprints: make(map[uint64]string, len(defs)),
		byLength:     make(map[int]int, len(defs)),
		byName:       make(map[string]int, len(defs)),
	}

	for i := range defs {
		def := &defs[i]

		_, seen := ix.uniqueLength[def.Length]
		ix.uniqueLength[def.Length] = !seen
		if !seen {
			ix.byLength[def.Length] = i
		}

		fp := Fingerprint(def.Tags())
		if prev, dup := ix.fingerprints[fp]; dup {
			logger.Warn("Telegram definitions share a structure fingerprint",
				"previous", prev,
				"definition", def.Name)
		}
		ix.fingerprints[fp] = def.Name

		if _, dup := ix.byName[def.Name]; !dup {
			ix.byName[def.Name] = i
		}
	}
	return ix
}

// LengthUnique reports whether exactly one definition has length n.
func (ix MatchIndex) LengthUnique(n int) bool {
	return ix.uniqueLength[n]
}

// Lookup returns the definition name registered for a fingerprint.
func (ix MatchIndex) Lookup(fingerprint uint64) (string, bool) {
	name, ok := ix.fingerprints[fingerprint]
	return name, ok
}
