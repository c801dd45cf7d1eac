package synth

import "github.com/marsmission/rover-status-service/internal/models"

// Perseverance landing site in Jezero Crater; anchor for all route positions.
const (
	BaseLat = 18.4447
	BaseLon = 77.4508
)

// Route synthesizes the traversed route for the given sol: one point per sol
// from 0 through sol inclusive. Index parity varies the drift direction so
// the path is not monotonic. Never empty for sol >= 0; the last point is the
// rover's current position and carries the requested sol.
func Route(sol int) []models.RoutePoint {
	if sol < 0 {
		sol = 0
	}
	route := make([]models.RoutePoint, 0, sol+1)
	for s := 0; s <= sol; s++ {
		latDir := 1.0
		if s%3 == 0 {
			latDir = -0.5
		}
		lonDir := -0.3
		if s%2 == 0 {
			lonDir = 1.0
		}
		route = append(route, models.RoutePoint{
			Lat: BaseLat + float64(s)*0.0001*latDir,
			Lon: BaseLon + float64(s)*0.0002*lonDir,
			Sol: s,
		})
	}
	return route
}

// CurrentPosition returns the last route point for the sol as a Location
// with the sol attached.
func CurrentPosition(route []models.RoutePoint) models.Location {
	last := route[len(route)-1]
	sol := last.Sol
	return models.Location{Lat: last.Lat, Lon: last.Lon, Sol: &sol}
}
