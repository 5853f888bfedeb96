package vocabulary

// Quantity is the base name of a meter reading. Per-phase readings append a
// phase suffix: VOLTAGE_L1, POWER_FACTOR_TOTAL.
type Quantity string

// Quantities produced by the meter profiles and by derivation.
const (
	SerialNumber         Quantity = "SERIAL_NUMBER"
	ActivePowerImport    Quantity = "ACTIVE_POWER_IMPORT"
	ActivePowerExport    Quantity = "ACTIVE_POWER_EXPORT"
	ActivePowerTotal     Quantity = "ACTIVE_POWER_TOTAL"
	ActiveEnergyImport   Quantity = "ACTIVE_ENERGY_IMPORT"
	ActiveEnergyExport   Quantity = "ACTIVE_ENERGY_EXPORT"
	Voltage              Quantity = "VOLTAGE"
	Current              Quantity = "CURRENT"
	Frequency            Quantity = "FREQUENCY"
	PowerFactor          Quantity = "POWER_FACTOR"
	PowerFactorDirection Quantity = "POWER_FACTOR_DIRECTION"
)

// TotalSuffix marks an aggregate over all phases.
const TotalSuffix = "TOTAL"

// Phases lists the phase suffixes in derivation order.
var Phases = []string{"L1", "L2", "L3"}

// Power factor direction labels.
const (
	Lagging = "lagging"
	Leading = "leading"
)

func (q Quantity) String() string { return string(q) }

// Phase returns the reading name for one phase, or for the aggregate when
// suffix is TotalSuffix.
func (q Quantity) Phase(suffix string) string {
	return string(q) + "_" + suffix
}

// Total returns the aggregate reading name.
func (q Quantity) Total() string { return q.Phase(TotalSuffix) }

// Direction labels a power factor: non-negative is lagging.
func Direction(pf float64) string {
	if pf >= 0 {
		return Lagging
	}
	return Leading
}
