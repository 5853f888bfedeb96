// Package telegramprocessor runs the telegram engine as a NATS component.
//
// The processor subscribes to raw DLMS structures, either the listener's XML
// rendering or a JSON message carrying a dlms.telegram.v1 payload, and runs
// each one through match, decode, transform and derive for the configured
// profile. Every successful record is published as a dlms.reading.v1
// message:
//
//	{
//	  "id": "…",
//	  "type": {"domain": "dlms", "category": "reading", "version": "v1"},
//	  "payload": {
//	    "profile": "si-sodo-reduxi",
//	    "name": "reduxi",
//	    "data": {"ACTIVE_POWER_TOTAL": 3000, "VOLTAGE_L1": 230.1, …},
//	    "victron": {"/Ac/Power": 3000, "/Ac/L1/Voltage": 230.1, …}
//	  },
//	  "meta": {…}
//	}
//
// Telegrams that match no definition or fail to decode are dropped, logged
// and counted; the processor keeps running. With a stream configured the
// readings are published through JetStream, and with a state bucket the
// latest reading per telegram name is kept in NATS KV.
package telegramprocessor
