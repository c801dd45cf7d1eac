package synth

import "github.com/marsmission/rover-status-service/internal/models"

// Rover status labels surfaced in the response header.
const (
	StatusOperational = "OPERATIONAL"
	StatusSleep       = "SLEEP"
)

// timelineSpan is how many sols back the timeline reaches from the selected sol.
const timelineSpan = 100

// Status derives the rover status for the sol. Late in the mission the rover
// alternates into a sleep cycle on every 10th sol.
func Status(sol int) string {
	if sol > 1200 && sol%10 == 0 {
		return StatusSleep
	}
	return StatusOperational
}

// Timeline builds the scrubbing timeline: the last 101 sols ending at the
// selected sol, clipped at sol 0.
func Timeline(sol int) models.Timeline {
	start := sol - timelineSpan
	if start < 0 {
		start = 0
	}
	sols := make([]int, 0, sol-start+1)
	for s := start; s <= sol; s++ {
		sols = append(sols, s)
	}
	return models.Timeline{Sols: sols, SelectedSol: sol}
}
