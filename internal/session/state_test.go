package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateDefaults(t *testing.T) {
	state := NewState()

	page, ok := state.Get(KeyCurrentPage)
	assert.True(t, ok)
	assert.Equal(t, "home", page)

	initialized, ok := state.Get(KeyInitialized)
	assert.True(t, ok)
	assert.Equal(t, true, initialized)

	_, ok = state.Get(KeySelectedModel)
	assert.False(t, ok)
}

func TestGetOrDefaultStoresOnMiss(t *testing.T) {
	state := NewState()

	first := state.GetOrDefault(KeyAnalysisMode, "Clustering Model")
	assert.Equal(t, "Clustering Model", first)

	// A second call with a different default returns the stored value.
	second := state.GetOrDefault(KeyAnalysisMode, "Regression Model")
	assert.Equal(t, "Clustering Model", second)
}

func TestClearRemovesOnlyListedKeys(t *testing.T) {
	state := NewState()
	state.Set(KeySelectedModel, "GPT-4-Turbo")
	state.Set(KeyAnalysisMode, "Clustering Model")

	state.Clear(KeySelectedModel)

	_, ok := state.Get(KeySelectedModel)
	assert.False(t, ok)

	mode, ok := state.Get(KeyAnalysisMode)
	assert.True(t, ok)
	assert.Equal(t, "Clustering Model", mode)

	page, ok := state.Get(KeyCurrentPage)
	assert.True(t, ok)
	assert.Equal(t, "home", page)
}

func TestClearAllRestoresDefaults(t *testing.T) {
	state := NewState()
	state.Set(KeySelectedModel, "GPT-4-Turbo")
	state.Set(KeyCurrentPage, "legal")

	state.ClearAll()

	_, ok := state.Get(KeySelectedModel)
	assert.False(t, ok)

	page, _ := state.Get(KeyCurrentPage)
	assert.Equal(t, "home", page)

	assert.ElementsMatch(t, []string{KeyCurrentPage, KeyInitialized}, state.Keys())
}
