// Package mapview turns medical desert records into map marker descriptions
// for the regional map client.
package mapview

import (
	"math"

	"github.com/agenthands/meddesert/internal/core/model"
)

const (
	// SevereThreshold is the severity above which a desert is drawn as severe.
	SevereThreshold = 85.0

	SevereColor = "#f43f5e"
	NormalColor = "#10b981"
	// SelectedStroke outlines the selected marker.
	SelectedStroke = "#fff"

	minRadius     = 12.0
	radiusScale   = 30.0
	selectedScale = 45.0
)

// Marker is everything the map client needs to draw one desert.
type Marker struct {
	ID          string  `json:"id"`
	Region      string  `json:"region"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Severity    float64 `json:"severity"`
	Severe      bool    `json:"severe"`
	Selected    bool    `json:"selected"`
	FillColor   string  `json:"fillColor"`
	StrokeColor string  `json:"strokeColor"`
	Radius      float64 `json:"radius"`
}

// Markers builds one marker per desert. selectedID may be empty.
func Markers(deserts []model.MedicalDesert, selectedID string) []Marker {
	out := make([]Marker, 0, len(deserts))
	for _, d := range deserts {
		out = append(out, markerFor(d, selectedID != "" && d.ID == selectedID))
	}
	return out
}

func markerFor(d model.MedicalDesert, selected bool) Marker {
	severe := d.Severity > SevereThreshold
	color := NormalColor
	if severe {
		color = SevereColor
	}
	stroke := color
	scale := radiusScale
	if selected {
		stroke = SelectedStroke
		scale = selectedScale
	}
	loc := d.Location()
	return Marker{
		ID:          d.ID,
		Region:      d.Region,
		Lat:         loc.Lat,
		Lng:         loc.Lng,
		Severity:    d.Severity,
		Severe:      severe,
		Selected:    selected,
		FillColor:   color,
		StrokeColor: stroke,
		Radius:      math.Max(minRadius, d.Severity/100*scale),
	}
}
