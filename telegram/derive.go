package telegram

import (
	"log/slog"
	"math"

	"github.com/AndyTempel/victron-dlms-gird-meter/scalar"
	"github.com/AndyTempel/victron-dlms-gird-meter/vocabulary"
)

// MinApparentPower is the apparent power, in volt-amperes, below which a
// phase is treated as unreliable for power factor.
const MinApparentPower = 0.01

// DeriveReport summarises the power factor step of Derive.
type DeriveReport struct {
	// Phases lists the phases with a usable apparent power, in L1..L3 order.
	Phases []string
	// Abstained is set when some but not all phases were usable, so no
	// power factor was written.
	Abstained bool
}

// Derive fills in electrical quantities the meter did not send. Every step
// runs only when its target is absent and reads the values earlier steps
// may have just written:
//
//  1. ACTIVE_POWER_TOTAL_Lx from per-phase import minus export
//  2. ACTIVE_POWER_IMPORT and ACTIVE_POWER_EXPORT from all three phases
//  3. ACTIVE_POWER_TOTAL from the aggregates
//  4. CURRENT_TOTAL from all three phase currents
//  5. power factor per phase and in total
func Derive(rec Record, logger *slog.Logger) (Record, DeriveReport) {
	if logger == nil {
		logger = slog.Default()
	}
	d := deriver{rec: rec, logger: logger}

	for _, ph := range vocabulary.Phases {
		d.combine(vocabulary.ActivePowerTotal.Phase(ph), scalar.Sub,
			vocabulary.ActivePowerImport.Phase(ph), vocabulary.ActivePowerExport.Phase(ph))
	}
	d.sumPhases(vocabulary.ActivePowerImport.String(), vocabulary.ActivePowerImport)
	d.sumPhases(vocabulary.ActivePowerExport.String(), vocabulary.ActivePowerExport)
	d.combine(vocabulary.ActivePowerTotal.String(), scalar.Sub,
		vocabulary.ActivePowerImport.String(), vocabulary.ActivePowerExport.String())
	d.sumPhases(vocabulary.Current.Total(), vocabulary.Current)

	return rec, d.powerFactor()
}

type deriver struct {
	rec    Record
	logger *slog.Logger
}

// combine sets target = op(a, b, ...) folded left, when target is absent and
// every operand is present.
func (d deriver) combine(target string, op func(a, b scalar.Value) (scalar.Value, error), operands ...string) {
	if d.rec.Has(target) {
		return
	}
	acc, ok := d.rec[operands[0]]
	if !ok {
		return
	}
	for _, key := range operands[1:] {
		v, ok := d.rec[key]
		if !ok {
			return
		}
		next, err := op(acc, v)
		if err != nil {
			d.logger.Debug("Derived quantity skipped", "target", target, "operand", key, "error", err)
			return
		}
		acc = next
	}
	d.rec[target] = acc
}

// sumPhases sets target to the sum of q over every phase.
func (d deriver) sumPhases(target string, q vocabulary.Quantity) {
	operands := make([]string, len(vocabulary.Phases))
	for i, ph := range vocabulary.Phases {
		operands[i] = q.Phase(ph)
	}
	d.combine(target, scalar.Add, operands...)
}

type phasePower struct {
	phase    string
	real     float64
	apparent float64
}

func (d deriver) powerFactor() DeriveReport {
	var valid []phasePower
	for _, ph := range vocabulary.Phases {
		v, okV := d.number(vocabulary.Voltage.Phase(ph))
		i, okI := d.number(vocabulary.Current.Phase(ph))
		p, okP := d.number(vocabulary.ActivePowerTotal.Phase(ph))
		if !okV || !okI || !okP {
			continue
		}
		apparent := math.Abs(v * i)
		if apparent < MinApparentPower {
			continue
		}
		valid = append(valid, phasePower{phase: ph, real: p, apparent: apparent})
	}

	report := DeriveReport{Phases: make([]string, len(valid))}
	for i, pp := range valid {
		report.Phases[i] = pp.phase
	}

	if len(valid) != 1 && len(valid) != len(vocabulary.Phases) {
		if len(valid) > 0 {
			report.Abstained = true
			d.logger.Debug("Power factor abstained", "valid_phases", report.Phases)
		}
		return report
	}

	var sumReal, sumApparent float64
	for _, pp := range valid {
		d.storePowerFactor(pp.phase, pp.real/pp.apparent)
		sumReal += pp.real
		sumApparent += pp.apparent
	}
	if sumApparent >= MinApparentPower {
		d.storePowerFactor(vocabulary.TotalSuffix, sumReal/sumApparent)
	}
	return report
}

func (d deriver) storePowerFactor(suffix string, ratio float64) {
	pf := math.Max(-1, math.Min(1, ratio))

	key := vocabulary.PowerFactor.Phase(suffix)
	if !d.rec.Has(key) {
		d.rec[key] = scalar.Float(math.Round(pf*1000) / 1000)
	}
	dirKey := vocabulary.PowerFactorDirection.Phase(suffix)
	if !d.rec.Has(dirKey) {
		d.rec[dirKey] = scalar.String(vocabulary.Direction(pf))
	}
}

func (d deriver) number(key string) (float64, bool) {
	v, ok := d.rec[key]
	if !ok {
		return 0, false
	}
	return v.Number()
}
