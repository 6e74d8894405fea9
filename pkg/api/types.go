package api

import (
	"github.com/google/uuid"
)

// TimeFormat is the wire format for all timestamps returned by the API.
const TimeFormat = "2006-01-02 15:04:05"

type CreateSessionResponse struct {
	SessionId uuid.UUID `json:"session_id"`
}

type SessionResponse struct {
	SessionId     uuid.UUID `json:"session_id"`
	CreatedAt     string    `json:"created_at"`
	CurrentPage   string    `json:"current_page"`
	HistoryLength int       `json:"history_length"`
}

// ResetSessionRequest names the state keys to clear. An empty list (or empty
// body) resets the whole session back to its defaults.
type ResetSessionRequest struct {
	Keys []string `json:"keys,omitempty"`
}

// HistoryEntry mirrors one ledger record. Fields that were not known when
// the entry was recorded are omitted from the serialized form entirely.
type HistoryEntry struct {
	Timestamp    string `json:"timestamp"`
	EntryType    string `json:"entry_type"`
	SourceName   string `json:"source_name,omitempty"`
	SourceKind   string `json:"source_kind,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
	AnalysisMode string `json:"analysis_mode,omitempty"`
	Query        string `json:"query,omitempty"`
	Response     string `json:"response,omitempty"`
}

type HistoryResponse struct {
	SessionId uuid.UUID      `json:"session_id"`
	Entries   []HistoryEntry `json:"entries"`
}

type UploadResponse struct {
	FileId uuid.UUID `json:"file_id"`
	Name   string    `json:"name"`
	Kind   string    `json:"kind"`
	Size   int64     `json:"size"`

	// Dataset uploads report their shape; document uploads report how many
	// chunks were indexed.
	Rows    int `json:"rows,omitempty"`
	Columns int `json:"columns,omitempty"`
	Chunks  int `json:"chunks,omitempty"`
}

type UploadedFile struct {
	FileId     uuid.UUID `json:"file_id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Size       int64     `json:"size"`
	UploadTime string    `json:"upload_time"`
}

type ListUploadsResponse struct {
	Files []UploadedFile `json:"files"`
}

// DataAnalysisRequest selects a dataset and how to analyze it. FileId may be
// omitted, in which case the most recent dataset upload is used. Either Mode
// or Query must be present.
type DataAnalysisRequest struct {
	FileId uuid.UUID `json:"file_id,omitempty"`
	Model  string    `json:"model,omitempty"`
	Mode   string    `json:"mode,omitempty"`
	Query  string    `json:"query,omitempty"`
}

type DataAnalysisResponse struct {
	FileId uuid.UUID `json:"file_id"`
	Model  string    `json:"model"`
	Mode   string    `json:"mode,omitempty"`
	Result string    `json:"result"`
}

// LegalAnalysisRequest runs one of the named analysis types against the
// session's most recent document upload. Query is required only for the
// custom type.
type LegalAnalysisRequest struct {
	AnalysisType string `json:"analysis_type"`
	Query        string `json:"query,omitempty"`
}

type LegalAnalysisResponse struct {
	AnalysisType    string `json:"analysis_type"`
	SourceName      string `json:"source_name"`
	Analysis        string `json:"analysis"`
	KeyPoints       string `json:"key_points"`
	Recommendations string `json:"recommendations"`
}

type OptionsResponse struct {
	Models             []string `json:"models"`
	AnalysisModes      []string `json:"analysis_modes"`
	LegalAnalysisTypes []string `json:"legal_analysis_types"`
}
