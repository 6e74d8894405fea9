package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentIsMostRecentFirst(t *testing.T) {
	var ledger Ledger
	for _, entryType := range []string{"A", "B", "C"} {
		ledger.Record(HistoryEntry{EntryType: entryType})
	}

	recent := ledger.Recent()
	require.Len(t, recent, 3)

	var types []string
	for _, entry := range recent {
		types = append(types, entry.EntryType)
	}
	assert.Equal(t, []string{"C", "B", "A"}, types)
}

func TestRecordKeepsEveryEntry(t *testing.T) {
	var ledger Ledger
	for i := 0; i < 100; i++ {
		ledger.Record(HistoryEntry{EntryType: "Data Analysis", SourceName: "sales.csv"})
	}
	assert.Equal(t, 100, ledger.Len())
	assert.Len(t, ledger.Recent(), 100)
}

func TestEmptyLedger(t *testing.T) {
	var ledger Ledger
	assert.Empty(t, ledger.Recent())
	assert.Equal(t, 0, ledger.Len())
}

func TestAbsentFieldsAreOmitted(t *testing.T) {
	var ledger Ledger
	ledger.Record(HistoryEntry{EntryType: "Data Analysis", SourceName: "sales.csv"})

	data, err := json.Marshal(ledger.Recent()[0])
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	var keys []string
	for k := range fields {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"timestamp", "entry_type", "source_name"}, keys)
}

func TestLegalAnalysisEntry(t *testing.T) {
	var ledger Ledger
	ledger.Record(HistoryEntry{
		EntryType:    "Legal Analysis",
		SourceName:   "contract.pdf",
		AnalysisMode: "Contract Review",
		Response:     "Key terms: ...",
	})

	recent := ledger.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, "Legal Analysis", recent[0].EntryType)
	assert.Equal(t, "contract.pdf", recent[0].SourceName)
	assert.Empty(t, recent[0].Query)
	assert.Equal(t, "Key terms: ...", recent[0].Response)
}

func TestRecordStampsSecondResolution(t *testing.T) {
	var ledger Ledger
	before := time.Now().Truncate(time.Second)
	ledger.Record(HistoryEntry{EntryType: "Data Analysis"})
	after := time.Now()

	ts := ledger.Recent()[0].Timestamp
	assert.Zero(t, ts.Nanosecond())
	assert.False(t, ts.Before(before))
	assert.False(t, ts.After(after))
}

func TestRecentIsSnapshot(t *testing.T) {
	var ledger Ledger
	ledger.Record(HistoryEntry{EntryType: "A"})

	first := ledger.Recent()
	ledger.Record(HistoryEntry{EntryType: "B"})

	require.Len(t, first, 1)
	assert.Equal(t, "A", first[0].EntryType)

	// Mutating a returned snapshot must not leak into the ledger.
	first[0].EntryType = "mutated"
	assert.Equal(t, "A", ledger.Recent()[1].EntryType)
}

func TestPartialEntriesAccepted(t *testing.T) {
	var ledger Ledger
	ledger.Record(HistoryEntry{EntryType: "Data Analysis", ModelName: "GPT-4-Turbo"})
	ledger.Record(HistoryEntry{})

	recent := ledger.Recent()
	require.Len(t, recent, 2)
	assert.Empty(t, recent[1].SourceName)
	assert.Equal(t, "GPT-4-Turbo", recent[1].ModelName)
}
