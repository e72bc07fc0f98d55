// Package geo gives a straight-line ETA for a tractor on its way to a customer.
package geo

import (
	"context"
	"math"

	"tractorbooking/internal/domain"
)

const earthRadiusKm = 6371.0

type Estimate struct {
	DistanceKm float64
	EtaMinutes int
}

// Haversine estimates distance along the great circle and drives it at a
// fixed average speed.
type Haversine struct {
	AverageSpeedKmh float64
}

func NewHaversine(averageSpeedKmh float64) *Haversine {
	if averageSpeedKmh <= 0 {
		averageSpeedKmh = 25
	}
	return &Haversine{AverageSpeedKmh: averageSpeedKmh}
}

func (h *Haversine) Estimate(_ context.Context, from, to domain.Location) (Estimate, error) {
	d := DistanceKm(from, to)
	eta := int(math.Ceil(d / h.AverageSpeedKmh * 60))
	return Estimate{
		DistanceKm: math.Round(d*100) / 100,
		EtaMinutes: eta,
	}, nil
}

func DistanceKm(a, b domain.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
