// Package telegram turns decoded DLMS structures into named meter readings.
//
// A Structure arrives from the protocol layer as a declared field count and
// an ordered list of (tag, raw value) pairs, usually parsed from the
// listener's XML with ParseStructure. Engine.Process then runs four stages
// against the selected profile.Profile:
//
//  1. Matcher.Match picks the telegram definition, first by unique length
//     and then by the xxhash fingerprint of the tag sequence.
//  2. DecodeRecord checks every position and tag and decodes raw values
//     with DecodeField. Structural problems drop the whole record.
//  3. Transform applies the profile's rules in order. Rules whose key is
//     missing do nothing.
//  4. Derive fills in totals, aggregates and power factor.
//
// The Record built for a structure is owned by the Process call and is
// returned to the caller in the Result.
package telegram
