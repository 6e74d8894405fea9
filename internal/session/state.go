package session

import (
	"maps"
	"sync"
)

// Keys for the fixed default set applied when a session starts. Callers may
// store additional keys; only these are restored by ClearAll.
const (
	KeyHistory       = "history"
	KeyCurrentPage   = "current_page"
	KeySelectedModel = "selected_model"
	KeyAnalysisMode  = "analysis_mode"
	KeyInitialized   = "initialized"
)

func defaultValues() map[string]any {
	return map[string]any{
		KeyCurrentPage: "home",
		KeyInitialized: true,
	}
}

// State is the per-session key-value store. It replaces the ambient,
// implicitly initialized global bag of the previous design: defaults are
// established once by the constructor, and every access goes through an
// explicit instance owned by exactly one session.
type State struct {
	mu     sync.Mutex
	values map[string]any
}

func NewState() *State {
	return &State{values: defaultValues()}
}

func (s *State) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// GetOrDefault returns the stored value for key, storing and returning def
// if the key is absent. The store-on-miss makes lazy initialization
// idempotent within a session.
func (s *State) GetOrDefault(key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	s.values[key] = def
	return def
}

func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Clear removes the listed keys only, leaving the rest of the state intact.
func (s *State) Clear(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
}

// ClearAll removes every key and re-applies the fixed default set.
func (s *State) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = defaultValues()
}

func (s *State) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range maps.Keys(s.values) {
		keys = append(keys, k)
	}
	return keys
}
