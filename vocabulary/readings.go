package vocabulary

// energyScale converts Wh from the meter to the kWh Victron expects.
const energyScale = 0.001

func init() {
	Register(SerialNumber.String(),
		WithDescription("Meter serial number"),
		WithVictronPath("/Serial", 1))
	Register(Frequency.String(),
		WithDescription("Grid frequency"),
		WithUnits("Hz"),
		WithVictronPath("/Ac/Frequency", 1))

	Register(ActivePowerTotal.String(),
		WithDescription("Net active power, import minus export"),
		WithUnits("W"),
		WithVictronPath("/Ac/Power", 1))
	Register(ActivePowerImport.String(), WithDescription("Active power drawn from the grid"), WithUnits("W"))
	Register(ActivePowerExport.String(), WithDescription("Active power fed into the grid"), WithUnits("W"))
	Register(Current.Total(),
		WithDescription("Sum of phase currents"),
		WithUnits("A"),
		WithVictronPath("/Ac/Current", 1))
	Register(ActiveEnergyImport.String(),
		WithDescription("Energy drawn from the grid"),
		WithUnits("Wh"),
		WithVictronPath("/Ac/Energy/Forward", energyScale))
	Register(ActiveEnergyExport.String(),
		WithDescription("Energy fed into the grid"),
		WithUnits("Wh"),
		WithVictronPath("/Ac/Energy/Reverse", energyScale))
	Register(PowerFactor.Total(),
		WithDescription("Power factor over all valid phases"),
		WithVictronPath("/Ac/PowerFactor", 1))
	Register(PowerFactorDirection.Total(), WithDescription("lagging or leading"))

	for _, ph := range Phases {
		base := "/Ac/" + ph
		Register(ActivePowerTotal.Phase(ph),
			WithDescription("Net active power of "+ph),
			WithUnits("W"),
			WithVictronPath(base+"/Power", 1))
		Register(ActivePowerImport.Phase(ph), WithUnits("W"))
		Register(ActivePowerExport.Phase(ph), WithUnits("W"))
		Register(Current.Phase(ph),
			WithUnits("A"),
			WithVictronPath(base+"/Current", 1))
		Register(Voltage.Phase(ph),
			WithUnits("V"),
			WithVictronPath(base+"/Voltage", 1))
		Register(ActiveEnergyImport.Phase(ph),
			WithUnits("Wh"),
			WithVictronPath(base+"/Energy/Forward", energyScale))
		Register(ActiveEnergyExport.Phase(ph),
			WithUnits("Wh"),
			WithVictronPath(base+"/Energy/Reverse", energyScale))
		Register(PowerFactor.Phase(ph),
			WithVictronPath(base+"/PowerFactor", 1))
		Register(PowerFactorDirection.Phase(ph))
	}
}
