package geo

import (
	"math"

	"github.com/agenthands/meddesert/internal/core/model"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance between a and b in kilometres (haversine).
func Distance(a, b model.LatLng) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// WithinRadius keeps the reports located at most km from center.
// Reports without usable coordinates are dropped.
func WithinRadius(reports []model.HospitalReport, center model.LatLng, km float64) []model.HospitalReport {
	out := make([]model.HospitalReport, 0, len(reports))
	for _, r := range reports {
		loc, ok := r.Location()
		if !ok {
			continue
		}
		if Distance(center, loc) <= km {
			out = append(out, r)
		}
	}
	return out
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
