package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndyTempel/victron-dlms-gird-meter/scalar"
)

func threePhase(p1, p2, p3 int64) Record {
	return Record{
		"VOLTAGE_L1": scalar.Int(230), "CURRENT_L1": scalar.Int(10), "ACTIVE_POWER_TOTAL_L1": scalar.Int(p1),
		"VOLTAGE_L2": scalar.Int(230), "CURRENT_L2": scalar.Int(10), "ACTIVE_POWER_TOTAL_L2": scalar.Int(p2),
		"VOLTAGE_L3": scalar.Int(230), "CURRENT_L3": scalar.Int(10), "ACTIVE_POWER_TOTAL_L3": scalar.Int(p3),
	}
}

func TestDerive_PowerFactor(t *testing.T) {
	rec, report := Derive(threePhase(2000, 2000, 2000), quietLogger())

	assert.Equal(t, []string{"L1", "L2", "L3"}, report.Phases)
	assert.False(t, report.Abstained)
	for _, ph := range []string{"L1", "L2", "L3"} {
		assert.InDelta(t, 0.870, rec["POWER_FACTOR_"+ph].Float(), 1e-9)
		assert.Equal(t, scalar.String("lagging"), rec["POWER_FACTOR_DIRECTION_"+ph])
	}
	assert.InDelta(t, 0.870, rec["POWER_FACTOR_TOTAL"].Float(), 1e-9)
	assert.Equal(t, scalar.String("lagging"), rec["POWER_FACTOR_DIRECTION_TOTAL"])
	assert.Equal(t, scalar.Int(30), rec["CURRENT_TOTAL"])
}

func TestDerive_PowerFactorLeading(t *testing.T) {
	rec, _ := Derive(threePhase(-2000, 2000, 2000), quietLogger())

	assert.InDelta(t, -0.870, rec["POWER_FACTOR_L1"].Float(), 1e-9)
	assert.Equal(t, scalar.String("leading"), rec["POWER_FACTOR_DIRECTION_L1"])
	assert.Equal(t, scalar.String("lagging"), rec["POWER_FACTOR_DIRECTION_L2"])
}

func TestDerive_PowerFactorClamped(t *testing.T) {
	rec, _ := Derive(Record{
		"VOLTAGE_L1": scalar.Int(230), "CURRENT_L1": scalar.Int(1), "ACTIVE_POWER_TOTAL_L1": scalar.Int(500),
	}, quietLogger())

	assert.Equal(t, scalar.Float(1), rec["POWER_FACTOR_L1"])
	assert.Equal(t, scalar.Float(1), rec["POWER_FACTOR_TOTAL"])
}

func TestDerive_SinglePhase(t *testing.T) {
	rec, report := Derive(Record{
		"VOLTAGE_L1": scalar.Float(230.0), "CURRENT_L1": scalar.Float(10.0), "ACTIVE_POWER_TOTAL_L1": scalar.Int(2000),
	}, quietLogger())

	assert.Equal(t, []string{"L1"}, report.Phases)
	assert.InDelta(t, 0.870, rec["POWER_FACTOR_L1"].Float(), 1e-9)
	assert.InDelta(t, 0.870, rec["POWER_FACTOR_TOTAL"].Float(), 1e-9)
	assert.False(t, rec.Has("POWER_FACTOR_L2"))
}

func TestDerive_PowerFactorAbstainsOnTwoPhases(t *testing.T) {
	in := threePhase(2000, 2000, 2000)
	delete(in, "VOLTAGE_L3")

	rec, report := Derive(in, quietLogger())

	assert.True(t, report.Abstained)
	assert.Equal(t, []string{"L1", "L2"}, report.Phases)
	for _, key := range rec.Keys() {
		assert.NotContains(t, key, "POWER_FACTOR")
	}
}

func TestDerive_ApparentPowerFloor(t *testing.T) {
	in := threePhase(0, 2000, 2000)
	in["VOLTAGE_L1"] = scalar.Int(0)
	in["CURRENT_L1"] = scalar.Int(0)
	// with L1 unusable only two phases remain, so no power factor at all
	rec, report := Derive(in, quietLogger())
	assert.True(t, report.Abstained)
	assert.False(t, rec.Has("POWER_FACTOR_L1"))

	single := Record{
		"VOLTAGE_L1": scalar.Int(0), "CURRENT_L1": scalar.Int(0), "ACTIVE_POWER_TOTAL_L1": scalar.Int(0),
		"VOLTAGE_L2": scalar.Int(230), "CURRENT_L2": scalar.Int(10), "ACTIVE_POWER_TOTAL_L2": scalar.Int(2000),
	}
	rec, report = Derive(single, quietLogger())
	assert.Equal(t, []string{"L2"}, report.Phases)
	assert.False(t, rec.Has("POWER_FACTOR_L1"))
	assert.InDelta(t, 0.870, rec["POWER_FACTOR_L2"].Float(), 1e-9)
	assert.InDelta(t, 0.870, rec["POWER_FACTOR_TOTAL"].Float(), 1e-9)
}

func TestDerive_NoInputs(t *testing.T) {
	rec, report := Derive(Record{"SERIAL_NUMBER": scalar.String("X")}, quietLogger())
	assert.Equal(t, Record{"SERIAL_NUMBER": scalar.String("X")}, rec)
	assert.Empty(t, report.Phases)
	assert.False(t, report.Abstained)
}

func TestDerive_ActivePower(t *testing.T) {
	rec, _ := Derive(Record{
		"ACTIVE_POWER_IMPORT_L1": scalar.Int(2000), "ACTIVE_POWER_EXPORT_L1": scalar.Int(0),
		"ACTIVE_POWER_IMPORT_L2": scalar.Int(1500), "ACTIVE_POWER_EXPORT_L2": scalar.Int(0),
		"ACTIVE_POWER_IMPORT_L3": scalar.Int(0), "ACTIVE_POWER_EXPORT_L3": scalar.Int(500),
	}, quietLogger())

	assert.Equal(t, scalar.Int(2000), rec["ACTIVE_POWER_TOTAL_L1"])
	assert.Equal(t, scalar.Int(1500), rec["ACTIVE_POWER_TOTAL_L2"])
	assert.Equal(t, scalar.Int(-500), rec["ACTIVE_POWER_TOTAL_L3"])
	assert.Equal(t, scalar.Int(3500), rec["ACTIVE_POWER_IMPORT"])
	assert.Equal(t, scalar.Int(500), rec["ACTIVE_POWER_EXPORT"])
	assert.Equal(t, scalar.Int(3000), rec["ACTIVE_POWER_TOTAL"])
}

func TestDerive_RequiresCompleteness(t *testing.T) {
	rec, _ := Derive(Record{
		"CURRENT_L1":             scalar.Int(1),
		"CURRENT_L2":             scalar.Int(2),
		"ACTIVE_POWER_IMPORT_L1": scalar.Int(10),
		"ACTIVE_POWER_IMPORT_L2": scalar.Int(10),
		"ACTIVE_POWER_EXPORT_L1": scalar.Int(1),
	}, quietLogger())

	assert.False(t, rec.Has("CURRENT_TOTAL"))
	assert.False(t, rec.Has("ACTIVE_POWER_IMPORT"))
	assert.False(t, rec.Has("ACTIVE_POWER_TOTAL"))
	assert.Equal(t, scalar.Int(9), rec["ACTIVE_POWER_TOTAL_L1"])
	assert.False(t, rec.Has("ACTIVE_POWER_TOTAL_L2"))
}

func TestDerive_KeepsExistingValues(t *testing.T) {
	in := threePhase(2000, 2000, 2000)
	in["ACTIVE_POWER_IMPORT_L1"] = scalar.Int(1)
	in["ACTIVE_POWER_EXPORT_L1"] = scalar.Int(1)
	in["CURRENT_TOTAL"] = scalar.Int(99)
	in["POWER_FACTOR_L1"] = scalar.Float(0.5)

	rec, _ := Derive(in, quietLogger())

	assert.Equal(t, scalar.Int(2000), rec["ACTIVE_POWER_TOTAL_L1"])
	assert.Equal(t, scalar.Int(99), rec["CURRENT_TOTAL"])
	assert.Equal(t, scalar.Float(0.5), rec["POWER_FACTOR_L1"])
	require.True(t, rec.Has("POWER_FACTOR_DIRECTION_L1"))
}

func TestDerive_ReadsEarlierSteps(t *testing.T) {
	// L1 power is only known after the per-phase step runs
	rec, report := Derive(Record{
		"ACTIVE_POWER_IMPORT_L1": scalar.Int(2000), "ACTIVE_POWER_EXPORT_L1": scalar.Int(0),
		"VOLTAGE_L1": scalar.Int(230), "CURRENT_L1": scalar.Int(10),
	}, quietLogger())

	assert.Equal(t, []string{"L1"}, report.Phases)
	assert.InDelta(t, 0.870, rec["POWER_FACTOR_L1"].Float(), 1e-9)
}
