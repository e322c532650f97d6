package operations

import (
	"sync"
	"time"

	"marketpipe/internal/dataprocessing"
	"marketpipe/internal/dataset"
)

// OperationState represents the runtime state of one pipeline run
type OperationState struct {
	mu        sync.RWMutex
	ID        string
	Status    string
	StartTime time.Time
	EndTime   *time.Time
	Steps     map[string]*StepState
	Context   map[string]interface{}
	Error     error
}

// NewOperationState creates a new operation state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:      id,
		Status:  OperationStatusPending,
		Steps:   make(map[string]*StepState),
		Context: make(map[string]interface{}),
	}
}

// Start marks the operation as running
func (s *OperationState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StartTime = time.Now()
	s.Status = OperationStatusRunning
}

// Complete marks the operation as completed
func (s *OperationState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = OperationStatusCompleted
}

// Fail marks the operation as failed with the given error
func (s *OperationState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = OperationStatusFailed
	s.Error = err
}

// GetStage returns the state of a step, or nil
func (s *OperationState) GetStage(stageID string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Steps[stageID]
}

// SetStage sets the state of a step
func (s *OperationState) SetStage(stageID string, state *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Steps[stageID] = state
}

// GetContext retrieves a value from the operation context
func (s *OperationState) GetContext(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.Context[key]
	return val, ok
}

// SetContext sets a value in the operation context
func (s *OperationState) SetContext(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Context[key] = value
}

// Frame returns a dataset stored under key
func (s *OperationState) Frame(key string) (*dataset.Frame, bool) {
	v, ok := s.GetContext(key)
	if !ok {
		return nil, false
	}
	frame, ok := v.(*dataset.Frame)
	return frame, ok && frame != nil
}

// TransformReport returns the report of the transform step, if it ran
func (s *OperationState) TransformReport() (*dataprocessing.Report, bool) {
	v, ok := s.GetContext(ContextKeyTransformReport)
	if !ok {
		return nil, false
	}
	report, ok := v.(*dataprocessing.Report)
	return report, ok
}

// Duration returns the total run duration
func (s *OperationState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.StartTime.IsZero() {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// FailedSteps returns the IDs of failed steps, tolerated ones included
func (s *OperationState) FailedSteps() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var failed []string
	for id, step := range s.Steps {
		if step.Status == StepStatusFailed {
			failed = append(failed, id)
		}
	}
	return failed
}
