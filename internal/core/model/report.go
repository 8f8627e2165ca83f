package model

// EquipmentStatus is the reported operational state of a piece of equipment.
type EquipmentStatus string

const (
	EquipmentOperational EquipmentStatus = "Operational"
	EquipmentLimited     EquipmentStatus = "Limited"
	EquipmentOffline     EquipmentStatus = "Offline"
)

type Equipment struct {
	Name   string          `json:"name" yaml:"name"`
	Status EquipmentStatus `json:"status" yaml:"status"`
}

// ExtractedData holds the structured capabilities pulled out of a report narrative.
type ExtractedData struct {
	Beds          int         `json:"beds" yaml:"beds"`
	Specialties   []string    `json:"specialties" yaml:"specialties"`
	Equipment     []string    `json:"equipment,omitempty" yaml:"equipment"`
	EquipmentList []Equipment `json:"equipmentList" yaml:"equipmentList"`
	Gaps          []string    `json:"gaps" yaml:"gaps"`
	Verified      bool        `json:"verified" yaml:"verified"`
	Confidence    float64     `json:"confidence" yaml:"confidence"`
}

// HospitalReport is one facility as described by a field report or a discovery run.
// The JSON shape is also the shape requested from the model, hence the camelCase tags.
type HospitalReport struct {
	ID               string         `json:"id" yaml:"id"`
	FacilityName     string         `json:"facilityName" yaml:"facilityName"`
	Region           string         `json:"region" yaml:"region"`
	ReportDate       string         `json:"reportDate" yaml:"reportDate"`
	UnstructuredText string         `json:"unstructuredText" yaml:"unstructuredText"`
	Coordinates      []float64      `json:"coordinates,omitempty" yaml:"coordinates"`
	ExtractedData    *ExtractedData `json:"extractedData,omitempty" yaml:"extractedData"`
}

// Location returns the report coordinates when exactly a [lat, lng] pair is present.
func (r HospitalReport) Location() (LatLng, bool) {
	if len(r.Coordinates) != 2 {
		return LatLng{}, false
	}
	return LatLng{Lat: r.Coordinates[0], Lng: r.Coordinates[1]}, true
}

// Gaps returns the extracted gaps or nil when the report has not been parsed.
func (r HospitalReport) Gaps() []string {
	if r.ExtractedData == nil {
		return nil
	}
	return r.ExtractedData.Gaps
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
