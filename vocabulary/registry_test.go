package vocabulary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndyTempel/victron-dlms-gird-meter/scalar"
)

func TestQuantityNames(t *testing.T) {
	assert.Equal(t, "VOLTAGE_L2", Voltage.Phase("L2"))
	assert.Equal(t, "CURRENT_TOTAL", Current.Total())
	assert.Equal(t, "POWER_FACTOR_DIRECTION_TOTAL", PowerFactorDirection.Total())
	assert.Equal(t, "ACTIVE_POWER_TOTAL", ActivePowerTotal.String())
}

func TestDirection(t *testing.T) {
	assert.Equal(t, Lagging, Direction(0.87))
	assert.Equal(t, Lagging, Direction(0))
	assert.Equal(t, Leading, Direction(-0.2))
}

func TestRegistry_Defaults(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		scale float64
	}{
		{"ACTIVE_POWER_TOTAL", "/Ac/Power", 1},
		{"CURRENT_TOTAL", "/Ac/Current", 1},
		{"ACTIVE_ENERGY_IMPORT", "/Ac/Energy/Forward", 0.001},
		{"ACTIVE_ENERGY_EXPORT_L3", "/Ac/L3/Energy/Reverse", 0.001},
		{"VOLTAGE_L1", "/Ac/L1/Voltage", 1},
		{"POWER_FACTOR_L2", "/Ac/L2/PowerFactor", 1},
		{"POWER_FACTOR_TOTAL", "/Ac/PowerFactor", 1},
		{"SERIAL_NUMBER", "/Serial", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, ok := Lookup(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.path, meta.VictronPath)
			assert.Equal(t, tt.scale, meta.Scale)
		})
	}

	meta, ok := Lookup("POWER_FACTOR_DIRECTION_L1")
	require.True(t, ok)
	assert.Empty(t, meta.VictronPath)
	assert.Contains(t, Registered(), "FREQUENCY")
}

func TestVictronValues(t *testing.T) {
	out := VictronValues(map[string]scalar.Value{
		"ACTIVE_ENERGY_IMPORT":         scalar.Int(12345),
		"ACTIVE_POWER_TOTAL":           scalar.Int(-250),
		"SERIAL_NUMBER":                scalar.String("ABC"),
		"POWER_FACTOR_DIRECTION_TOTAL": scalar.String(Lagging),
		"TARIFF":                       scalar.Int(2),
	})

	assert.InDelta(t, 12.345, out["/Ac/Energy/Forward"], 1e-9)
	assert.Equal(t, int64(-250), out["/Ac/Power"])
	assert.Equal(t, "ABC", out["/Serial"])
	assert.Len(t, out, 3)
}
