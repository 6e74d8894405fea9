package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIsolation(t *testing.T) {
	manager := NewManager(0)

	first := manager.Create()
	second := manager.Create()
	require.NotEqual(t, first.ID, second.ID)

	first.Record(HistoryEntry{EntryType: "Data Analysis", SourceName: "sales.csv"})
	second.Record(HistoryEntry{EntryType: "Legal Analysis", SourceName: "contract.pdf"})
	second.Record(HistoryEntry{EntryType: "Legal Analysis", SourceName: "nda.pdf"})

	require.Len(t, first.History(), 1)
	assert.Equal(t, "sales.csv", first.History()[0].SourceName)

	require.Len(t, second.History(), 2)
	assert.Equal(t, "nda.pdf", second.History()[0].SourceName)
}

func TestFreshSessionHasEmptyHistory(t *testing.T) {
	manager := NewManager(0)
	s := manager.Create()
	assert.Empty(t, s.History())
}

func TestGetUnknownSession(t *testing.T) {
	manager := NewManager(0)
	_, ok := manager.Get(uuid.New())
	assert.False(t, ok)
}

func TestEndDestroysSession(t *testing.T) {
	manager := NewManager(0)
	s := manager.Create()
	s.Record(HistoryEntry{EntryType: "Data Analysis"})

	assert.True(t, manager.End(s.ID))
	assert.False(t, manager.End(s.ID))

	_, ok := manager.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, manager.Len())
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	manager := NewManager(time.Minute)

	idle := manager.Create()
	active := manager.Create()

	idle.mu.Lock()
	idle.lastAccessed = time.Now().Add(-2 * time.Minute)
	idle.mu.Unlock()

	evicted := manager.sweep(time.Now())
	assert.Equal(t, []uuid.UUID{idle.ID}, evicted)

	_, ok := manager.Get(active.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, manager.Len())
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	manager := NewManager(0)
	s := manager.Create()

	s.mu.Lock()
	s.lastAccessed = time.Now().Add(-24 * time.Hour)
	s.mu.Unlock()

	assert.Empty(t, manager.sweep(time.Now()))
	assert.Equal(t, 1, manager.Len())
}

func TestConcurrentRecords(t *testing.T) {
	manager := NewManager(0)
	s := manager.Create()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				s.Record(HistoryEntry{EntryType: "Data Analysis"})
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	assert.Len(t, s.History(), 400)
}
