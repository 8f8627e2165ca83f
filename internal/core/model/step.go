package model

import "time"

type AgentName string

const (
	AgentParser     AgentName = "Parser"
	AgentVerifier   AgentName = "Verifier"
	AgentStrategist AgentName = "Strategist"
	AgentMatcher    AgentName = "Matcher"
	AgentPredictor  AgentName = "Predictor"
)

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepActive    StepStatus = "active"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
)

// Metrics describes one agent call. ExecutionTime is in milliseconds.
type Metrics struct {
	ExecutionTime      int64   `json:"executionTime"`
	SuccessRate        float64 `json:"successRate"`
	HallucinationScore float64 `json:"hallucinationScore"`
}

// AgentStep is a progress entry for one pipeline stage.
type AgentStep struct {
	ID                 string      `json:"id"`
	AgentName          AgentName   `json:"agentName"`
	Action             string      `json:"action"`
	Status             StepStatus  `json:"status"`
	Timestamp          time.Time   `json:"timestamp"`
	Description        string      `json:"description,omitempty"`
	Metrics            *Metrics    `json:"metrics,omitempty"`
	IntermediateOutput interface{} `json:"intermediateOutput,omitempty"`
}

// StepUpdate carries the fields that may change on the last step. Nil/empty fields are left as they are.
type StepUpdate struct {
	Status      StepStatus
	Description string
	Metrics     *Metrics
	Output      interface{}
}

type ViewState string

const (
	ViewDashboard  ViewState = "dashboard"
	ViewMap        ViewState = "map"
	ViewAnalysis   ViewState = "analysis"
	ViewAudit      ViewState = "audit"
	ViewSimulation ViewState = "simulation"
)

func (v ViewState) Valid() bool {
	switch v {
	case ViewDashboard, ViewMap, ViewAnalysis, ViewAudit, ViewSimulation:
		return true
	}
	return false
}
