package storage

import (
	"context"
	"errors"
	"slices"
	"sync"
)

type MemoryStore struct {
	mu           sync.RWMutex
	initialized  bool
	runs         map[string]Run
	steps        map[string][]StepRecord
	chargeStates map[string]map[string][]ChargeStateRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]Run)
	s.steps = make(map[string][]StepRecord)
	s.chargeStates = make(map[string]map[string][]ChargeStateRecord)
	return nil
}

var errNotInitialized = errors.New("store is not initialized")

func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) SaveStep(_ context.Context, runID string, record StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	record.SubSteps = slices.Clone(record.SubSteps)
	s.steps[runID] = append(s.steps[runID], record)
	return nil
}

func (s *MemoryStore) GetSteps(_ context.Context, runID string) ([]StepRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	steps, ok := s.steps[runID]
	return slices.Clone(steps), ok, nil
}

func (s *MemoryStore) SaveChargeStates(_ context.Context, runID string, record ChargeStateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	if s.chargeStates[runID] == nil {
		s.chargeStates[runID] = make(map[string][]ChargeStateRecord)
	}
	record.Weights = slices.Clone(record.Weights)
	s.chargeStates[runID][record.Species] = append(s.chargeStates[runID][record.Species], record)
	return nil
}

func (s *MemoryStore) GetChargeStates(_ context.Context, runID, species string) ([]ChargeStateRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.chargeStates[runID][species]
	return slices.Clone(records), ok, nil
}
