// Package dlmsmeter decodes DLMS/COSEM push telegrams from electricity smart
// meters into named, scaled readings for a Victron grid meter.
//
// # Pipeline
//
// A listener hands over each received structure as an ordered list of typed
// fields. For the selected meter profile the structure then goes through:
//
//  1. match: pick the telegram definition by field count, or by the tag
//     sequence when several definitions share a length
//  2. decode: turn every raw field into an integer, string or boolean named
//     after its definition
//  3. transform: apply the profile's ordered rules (DIVIDE, MULTIPLY_IF_KEY,
//     TO_STRING, ...)
//  4. derive: fill in per-phase and total power, total current and power
//     factor the meter did not send
//
// A structure that fails any step is dropped; the service keeps running.
//
// # Layout
//
//	scalar/              numeric and string values used by readings
//	profile/             profile documents, the catalog, the offline validator
//	telegrams/           built-in profile documents (embedded)
//	telegram/            match, decode, transform, derive and the Engine
//	vocabulary/          reading names and their Victron D-Bus paths
//	message/             dlms.reading.v1 and dlms.telegram.v1 messages
//	processor/telegram/  the NATS component running the engine
//	natsclient/          NATS connection, JetStream and KV access
//	metric/              Prometheus registry and HTTP endpoint
//	config/              JSON configuration with DLMS_METER_* overrides
//	cmd/dlms-meter/      the service
//	cmd/telegram-validator/  checks profile documents before deployment
//
// # Adding a meter
//
// Write a profile document next to the built-in ones (or in a directory
// passed as meter.profiles_dir), run telegram-validator on it, and select it
// with meter.profile_id or --profile.
package dlmsmeter
