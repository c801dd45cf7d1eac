// Package synth generates deterministic telemetry, route and status data for
// a mission day (sol). Everything here is a pure function of the sol index:
// the same sol always produces bit-identical output, which keeps responses
// reproducible and testable without a live telemetry feed.
package synth

import (
	"math"

	"github.com/marsmission/rover-status-service/internal/models"
)

// Metrics synthesizes the telemetry bundle for the given sol. Values follow
// closed-form oscillatory plus linear-trend compositions, each clamped to a
// physically plausible range. Total: no failure modes for any sol >= 0.
func Metrics(sol int) models.Metrics {
	s := float64(sol)

	// Battery: slow degradation over the mission plus charge/discharge cycles.
	charge := clampInt(int(90-0.01*s+15*math.Sin(0.5*s)), 30, 100)

	// Surface temperature: seasonal term (period ~370 sols) plus a much
	// shorter diurnal swing.
	temperature := round1(-28.0 + 10*math.Sin(0.017*s) + 25*math.Sin(2.0*s))

	// Radiation is comparatively stable on the surface.
	radiation := round2(0.24 + 0.03*math.Sin(0.1*s))

	// Atmospheric dust opacity (tau); storms push it above the 0.3 floor.
	dustOpacity := round2(math.Max(0.3, 0.8+0.4*math.Sin(0.01*s)+0.6*math.Abs(math.Sin(0.02*s))))

	dustStorm := clampInt(int(15+20*math.Sin(0.008*s)+10*math.Sin(0.05*s)), 0, 100)

	// Panel dust accumulates linearly; a cleaning event every 100 sols
	// knocks the total back down.
	dustAccumulation := round2(math.Max(0.1, 2.0+0.01*s-1.5*math.Floor(s/100)))

	// Airborne dust correlates with the (already rounded) opacity.
	atmosphericDust := int(120 + 60*(dustOpacity-0.5) + 30*math.Sin(0.012*s))
	if atmosphericDust < 50 {
		atmosphericDust = 50
	}

	return models.Metrics{
		Charge:                charge,
		Temperature:           temperature,
		Radiation:             radiation,
		DustOpacity:           dustOpacity,
		DustStormActivity:     dustStorm,
		DustAccumulation:      dustAccumulation,
		AtmosphericDustLevels: atmosphericDust,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
