// Package profile loads telegram profile documents and selects the one that
// describes the connected meter.
//
// A profile document is a YAML file naming the meter (info), the record
// layouts the meter emits (telegrams) and an ordered list of declarative
// transformations. A shared default.yml is merged underneath every profile:
// any top-level key the profile declares replaces the default's value
// wholesale.
//
// Selecting a profile builds its MatchIndex. A record whose field count
// belongs to exactly one definition is matched by length; otherwise the
// ordered field type tags are hashed with xxhash and looked up by
// fingerprint.
//
//	cat, err := profile.LoadFS(telegrams.FS, logger)
//	p, err := cat.Select("si-sodo-reduxi")
//
// Validator runs the same documents through an embedded JSON schema plus
// the structural checks (length against contents, contiguous positions,
// multiple_telegrams) used by the telegram-validator command.
package profile
