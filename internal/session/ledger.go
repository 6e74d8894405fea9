package session

import (
	"time"
)

// HistoryEntry is an immutable record of one completed analysis action.
// Optional fields left empty at record time are omitted when serialized,
// they are never rendered as empty placeholders.
type HistoryEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	EntryType    string    `json:"entry_type"`
	SourceName   string    `json:"source_name,omitempty"`
	SourceKind   string    `json:"source_kind,omitempty"`
	ModelName    string    `json:"model_name,omitempty"`
	AnalysisMode string    `json:"analysis_mode,omitempty"`
	Query        string    `json:"query,omitempty"`
	Response     string    `json:"response,omitempty"`
}

// Ledger is the append-only record of analysis events for one session.
// Entries are never removed or reordered. The ledger is memory resident
// and lives exactly as long as its session.
type Ledger struct {
	entries []HistoryEntry
}

// Record appends one entry stamped with the current time (second
// resolution). Entries with only partial information are accepted, the
// caller records whatever it knows at the time.
func (l *Ledger) Record(entry HistoryEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Timestamp = entry.Timestamp.Truncate(time.Second)
	l.entries = append(l.entries, entry)
}

// Recent returns the recorded entries most-recent-first. The result is a
// snapshot copy; later appends do not affect slices already returned.
func (l *Ledger) Recent() []HistoryEntry {
	out := make([]HistoryEntry, len(l.entries))
	for i, entry := range l.entries {
		out[len(l.entries)-1-i] = entry
	}
	return out
}

func (l *Ledger) Len() int {
	return len(l.entries)
}
