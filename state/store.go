package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hairizuan-noorazman/testpilot/appmodule"
	"github.com/hairizuan-noorazman/testpilot/logger"
	"github.com/hairizuan-noorazman/testpilot/testcase"
)

// Store owns the project state. Every successful Dispatch is written back to
// the backend.
type Store struct {
	mu      sync.Mutex
	backend Backend
	key     string
	state   State
	logger  logger.Logger
}

// NewStore creates a store holding the default state. Call Load to read the
// persisted document.
func NewStore(backend Backend, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		backend: backend,
		key:     StorageKey,
		state:   Default(),
		logger:  log,
	}
}

// GetState returns a copy of the current state.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch applies a and persists the result. When the action fails the
// state is left unchanged; when saving fails the new state is kept in memory
// and the error is returned.
func (s *Store) Dispatch(ctx context.Context, a Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Reduce(s.state, a)
	if err != nil {
		return s.state.clone(), err
	}
	s.state = next

	if err := s.saveLocked(ctx); err != nil {
		return s.state.clone(), err
	}
	return s.state.clone(), nil
}

// Load reads the persisted document. A missing document leaves the defaults
// in place. A corrupt one is deleted and also falls back to the defaults.
// Loaded records are repaired rather than trusted.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.Read(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		s.state = Default()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	var loaded State
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warn(ctx, "Discarding corrupt state", map[string]interface{}{
			"key":   s.key,
			"error": err.Error(),
		})
		s.state = Default()
		if err := s.backend.Delete(ctx, s.key); err != nil {
			return fmt.Errorf("failed to delete corrupt state: %w", err)
		}
		return nil
	}

	repaired, fixes := Repair(loaded)
	if fixes > 0 {
		s.logger.Info(ctx, "Repaired loaded state", map[string]interface{}{
			"fixes": fixes,
		})
	}
	s.state = repaired
	return nil
}

// Save writes the current state to the backend.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.backend.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Repair fills in what an older or hand-edited document may lack: missing
// slices, module IDs, test case statuses, types and steps. It returns the
// repaired state and the number of fixes made.
func Repair(s State) (State, int) {
	fixes := 0

	if s.DiscoveredModules == nil {
		s.DiscoveredModules = []appmodule.DiscoveredModule{}
	}
	if s.TestCases == nil {
		s.TestCases = []testcase.TestCase{}
	}

	for i := range s.DiscoveredModules {
		if s.DiscoveredModules[i].ID == "" {
			s.DiscoveredModules[i].ID = uuid.NewString()
			fixes++
		}
	}

	for i := range s.TestCases {
		tc := &s.TestCases[i]
		if !tc.Status.IsValid() {
			if parsed, ok := testcase.ParseStatus(string(tc.Status)); ok {
				tc.Status = parsed
			} else {
				tc.Status = testcase.StatusPending
			}
			fixes++
		}
		if !tc.Type.IsValid() {
			if parsed, ok := testcase.ParseType(string(tc.Type)); ok {
				tc.Type = parsed
			} else {
				tc.Type = testcase.TypeFunctional
			}
			fixes++
		}
		if tc.Steps == nil {
			tc.Steps = []string{}
			fixes++
		}
	}

	if s.CachedSuggestions != nil && s.CachedSuggestions.Modules == nil {
		s.CachedSuggestions.Modules = []appmodule.SuggestedModule{}
	}
	return s, fixes
}
