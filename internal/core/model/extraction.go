package model

// ParsedCapabilities is the parser agent output for a batch of report narratives.
type ParsedCapabilities struct {
	FacilityName  string      `json:"facilityName"`
	Beds          int         `json:"beds"`
	Specialties   []string    `json:"specialties"`
	Equipment     []string    `json:"equipment"`
	EquipmentList []Equipment `json:"equipmentList"`
	Gaps          []string    `json:"gaps"`
	Confidence    float64     `json:"confidence"`
}

// Recommendation is a staffing placement suggested by the matcher agent.
type Recommendation struct {
	Facility string `json:"facility"`
	Role     string `json:"role"`
	Reason   string `json:"reason"`
	Priority string `json:"priority"`
}

type Recommendations struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// Forecast is a predicted infrastructure gap for a region.
type Forecast struct {
	Region      string  `json:"region"`
	FutureGap   string  `json:"futureGap"`
	Probability float64 `json:"probability"`
	Timeframe   string  `json:"timeframe"`
}

type Forecasts struct {
	Forecasts []Forecast `json:"forecasts"`
}

// GroundingLink is a citation returned alongside a retrieval-grounded answer.
type GroundingLink struct {
	URI    string `json:"uri"`
	Title  string `json:"title,omitempty"`
	Source string `json:"source"`
}
