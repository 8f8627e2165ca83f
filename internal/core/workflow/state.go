package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/meddesert/internal/core/model"
)

// Snapshot is a point-in-time copy of the dashboard state. Slices are never shared
// with the live state.
type Snapshot struct {
	Reports      []model.HospitalReport `json:"reports"`
	Deserts      []model.MedicalDesert  `json:"deserts"`
	Steps        []model.AgentStep      `json:"steps"`
	Plan         *string                `json:"plan"`
	Grounding    []model.GroundingLink  `json:"groundingLinks"`
	IsThinking   bool                   `json:"isThinking"`
	ActiveView   model.ViewState        `json:"activeView"`
	UserLocation *model.LatLng          `json:"userLocation,omitempty"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

// State is the dashboard state shared by the HTTP handlers and the coordinator.
// Every mutation publishes a snapshot to subscribers.
type State struct {
	mu        sync.RWMutex
	reports   []model.HospitalReport
	deserts   []model.MedicalDesert
	steps     []model.AgentStep
	plan      *string
	grounding []model.GroundingLink
	thinking  bool
	view      model.ViewState
	location  *model.LatLng
	updatedAt time.Time

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int

	now func() time.Time
}

func NewState(reports []model.HospitalReport, deserts []model.MedicalDesert) *State {
	return &State{
		reports:   cloneReports(reports),
		deserts:   append([]model.MedicalDesert(nil), deserts...),
		view:      model.ViewDashboard,
		subs:      make(map[int]chan Snapshot),
		now:       time.Now,
		updatedAt: time.Now(),
	}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	snap := Snapshot{
		Reports:    cloneReports(s.reports),
		Deserts:    append([]model.MedicalDesert(nil), s.deserts...),
		Steps:      append([]model.AgentStep(nil), s.steps...),
		Grounding:  append([]model.GroundingLink(nil), s.grounding...),
		IsThinking: s.thinking,
		ActiveView: s.view,
		UpdatedAt:  s.updatedAt,
	}
	if s.plan != nil {
		p := *s.plan
		snap.Plan = &p
	}
	if s.location != nil {
		l := *s.location
		snap.UserLocation = &l
	}
	return snap
}

// update applies fn under the write lock and publishes the result. Publishing
// happens before the lock is released so subscribers see changes in order.
func (s *State) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	s.updatedAt = s.now()
	s.publish(s.snapshotLocked())
}

// Subscribe returns a channel receiving a snapshot after every change and a cancel
// function. Snapshots are dropped for a subscriber whose buffer is full.
func (s *State) Subscribe(buffer int) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, buffer)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *State) publish(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// begin flips the thinking flag on. It reports false when a run is already in flight.
func (s *State) begin(clearSteps bool, clearGrounding bool) bool {
	ok := false
	s.update(func() {
		if s.thinking {
			return
		}
		ok = true
		s.thinking = true
		s.view = model.ViewAnalysis
		if clearSteps {
			s.steps = nil
			s.plan = nil
		}
		if clearGrounding {
			s.grounding = nil
		}
	})
	return ok
}

func (s *State) finish() {
	s.update(func() { s.thinking = false })
}

func (s *State) addStep(name model.AgentName, action, description string) {
	s.update(func() {
		s.steps = append(s.steps, model.AgentStep{
			ID:          uuid.New().String(),
			AgentName:   name,
			Action:      action,
			Status:      model.StepActive,
			Timestamp:   s.now(),
			Description: description,
		})
	})
}

// appendStep adds a step with a final status, as used for the error entry.
func (s *State) appendStep(name model.AgentName, action string, status model.StepStatus, description string) {
	s.update(func() {
		s.steps = append(s.steps, model.AgentStep{
			ID:          uuid.New().String(),
			AgentName:   name,
			Action:      action,
			Status:      status,
			Timestamp:   s.now(),
			Description: description,
		})
	})
}

func (s *State) updateLastStep(u model.StepUpdate) {
	s.update(func() {
		if len(s.steps) == 0 {
			return
		}
		last := &s.steps[len(s.steps)-1]
		if u.Status != "" {
			last.Status = u.Status
		}
		if u.Description != "" {
			last.Description = u.Description
		}
		if u.Metrics != nil {
			m := *u.Metrics
			last.Metrics = &m
		}
		if u.Output != nil {
			last.IntermediateOutput = u.Output
		}
	})
}

// failActiveStep marks the last step errored if it is still active.
func (s *State) failActiveStep(description string) {
	s.update(func() {
		if len(s.steps) == 0 {
			return
		}
		last := &s.steps[len(s.steps)-1]
		if last.Status == model.StepActive {
			last.Status = model.StepError
			last.Description = description
		}
	})
}

func (s *State) setReports(reports []model.HospitalReport) {
	s.update(func() { s.reports = cloneReports(reports) })
}

func (s *State) setPlan(plan string) {
	s.update(func() { s.plan = &plan })
}

func (s *State) appendGrounding(links []model.GroundingLink) {
	if len(links) == 0 {
		return
	}
	s.update(func() { s.grounding = append(s.grounding, links...) })
}

func (s *State) replaceGrounding(links []model.GroundingLink) {
	s.update(func() { s.grounding = append([]model.GroundingLink(nil), links...) })
}

// SetView switches the active dashboard view.
func (s *State) SetView(v model.ViewState) {
	s.update(func() { s.view = v })
}

// SetLocation records the operator's best-effort geolocation.
func (s *State) SetLocation(loc *model.LatLng) {
	s.update(func() {
		if loc == nil {
			s.location = nil
			return
		}
		l := *loc
		s.location = &l
	})
}

func (s *State) Location() *model.LatLng {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.location == nil {
		return nil
	}
	l := *s.location
	return &l
}

func (s *State) Reports() []model.HospitalReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneReports(s.reports)
}

func (s *State) Deserts() []model.MedicalDesert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.MedicalDesert(nil), s.deserts...)
}

// Report looks up a report by id.
func (s *State) Report(id string) (model.HospitalReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reports {
		if r.ID == id {
			return r, true
		}
	}
	return model.HospitalReport{}, false
}

func (s *State) Thinking() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thinking
}

// cloneReports copies the slice; reports are replaced wholesale, never edited, so a
// shallow copy of each element is enough.
func cloneReports(in []model.HospitalReport) []model.HospitalReport {
	if in == nil {
		return nil
	}
	return append([]model.HospitalReport(nil), in...)
}
