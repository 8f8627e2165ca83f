package model

type PopulationDensity string

const (
	DensityHigh   PopulationDensity = "High"
	DensityMedium PopulationDensity = "Medium"
	DensityLow    PopulationDensity = "Low"
)

// MedicalDesert summarizes a region flagged as underserved. Severity is 0-100.
type MedicalDesert struct {
	ID                string            `json:"id" yaml:"id"`
	Region            string            `json:"region" yaml:"region"`
	PopulationDensity PopulationDensity `json:"populationDensity" yaml:"populationDensity"`
	PrimaryGaps       []string          `json:"primaryGaps" yaml:"primaryGaps"`
	Severity          float64           `json:"severity" yaml:"severity"`
	Coordinates       [2]float64        `json:"coordinates" yaml:"coordinates"`
	PredictedRisk     float64           `json:"predictedRisk" yaml:"predictedRisk"`
	PredictiveGaps    []string          `json:"predictiveGaps" yaml:"predictiveGaps"`
}

func (d MedicalDesert) Location() LatLng {
	return LatLng{Lat: d.Coordinates[0], Lng: d.Coordinates[1]}
}
