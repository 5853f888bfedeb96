// Package vocabulary names the readings a grid meter produces and maps them
// onto the D-Bus paths of a Victron grid meter.
//
// Reading names are upper-case with an optional phase suffix:
//
//	VOLTAGE_L1, ACTIVE_POWER_TOTAL, POWER_FACTOR_TOTAL
//
// Quantity builds these names so the derivation code and the profiles agree
// on spelling:
//
//	vocabulary.Voltage.Phase("L1")    // "VOLTAGE_L1"
//	vocabulary.PowerFactor.Total()    // "POWER_FACTOR_TOTAL"
//
// # Registry
//
// Every well-known reading is registered at init with its units and, where
// one exists, its Victron path and scale. Energy counters arrive in Wh and
// are published in kWh. Deployments can register extra readings or replace
// a mapping:
//
//	vocabulary.Register("TARIFF", vocabulary.WithDescription("Active tariff"))
//
// VictronValues turns a decoded record into the path/value map a D-Bus
// bridge consumes. Readings without a path are dropped.
package vocabulary
