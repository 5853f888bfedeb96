// Package message defines the envelope published on NATS by the meter
// service.
//
// A BaseMessage wraps a typed Payload with an id, a Type
// (domain.category.version) and Meta. The wire format is
//
//	{"id": "...", "type": {"domain":"dlms","category":"reading","version":"v1"},
//	 "payload": {...}, "meta": {"created_at": 1700000000000, "received_at": ..., "source": "dlms-meter"}}
//
// Payload types register a factory at init so UnmarshalJSON can rebuild the
// concrete payload. Two are built in: MeterReading (dlms.reading.v1), the
// processed output of one telegram, and TelegramPayload (dlms.telegram.v1),
// a structure submitted as JSON instead of XML.
package message
