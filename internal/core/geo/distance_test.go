package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agenthands/meddesert/internal/core/model"
)

func TestDistanceIdenticalPoints(t *testing.T) {
	p := model.LatLng{Lat: 9.4075, Lng: -0.8533}
	assert.Equal(t, 0.0, Distance(p, p))
}

func TestDistanceOneDegreeLatitude(t *testing.T) {
	d := Distance(model.LatLng{Lat: 5, Lng: -1}, model.LatLng{Lat: 6, Lng: -1})
	assert.InDelta(t, 111.19, d, 0.1)
}

func TestDistanceAccraKumasi(t *testing.T) {
	accra := model.LatLng{Lat: 5.6037, Lng: -0.1870}
	kumasi := model.LatLng{Lat: 6.6885, Lng: -1.6244}
	// Straight-line distance is roughly 200 km.
	assert.InDelta(t, 200, Distance(accra, kumasi), 5)
	assert.InDelta(t, Distance(accra, kumasi), Distance(kumasi, accra), 1e-9)
}

func TestWithinRadius(t *testing.T) {
	reports := []model.HospitalReport{
		{ID: "accra", Coordinates: []float64{5.5364, -0.2280}},
		{ID: "tamale", Coordinates: []float64{9.4075, -0.8533}},
		{ID: "unknown"},
		{ID: "bad", Coordinates: []float64{1}},
	}

	got := WithinRadius(reports, model.LatLng{Lat: 5.6037, Lng: -0.1870}, 50)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "accra", got[0].ID)
	}
	assert.Len(t, WithinRadius(reports, model.LatLng{Lat: 7, Lng: -0.5}, 1000), 2)
}
