package api

import (
	"log/slog"
	"net/http"

	"analysis-backend/internal/analysis"
	"analysis-backend/internal/session"
	"analysis-backend/pkg/api"
)

func (s *BackendService) CreateSession(r *http.Request) (any, error) {
	sess := s.sessions.Create()
	slog.Info("session created", "session_id", sess.ID)
	return api.CreateSessionResponse{SessionId: sess.ID}, nil
}

func (s *BackendService) GetSession(r *http.Request) (any, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	page, _ := sess.State().GetOrDefault(session.KeyCurrentPage, "home").(string)

	return api.SessionResponse{
		SessionId:     sess.ID,
		CreatedAt:     sess.CreatedAt.Format(api.TimeFormat),
		CurrentPage:   page,
		HistoryLength: len(sess.History()),
	}, nil
}

func (s *BackendService) EndSession(r *http.Request) (any, error) {
	id, err := URLParamUUID(r, "session_id")
	if err != nil {
		return nil, err
	}

	if !s.sessions.End(id) {
		return nil, CodedErrorf(http.StatusNotFound, "session %v not found", id)
	}

	s.ReleaseSessionData(r.Context(), id)

	slog.Info("session ended", "session_id", id)
	return nil, nil
}

// ResetSession clears the named state keys, or the whole session when no
// keys are given. The session itself stays alive with its defaults restored.
func (s *BackendService) ResetSession(r *http.Request) (any, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	var req api.ResetSessionRequest
	if r.ContentLength > 0 {
		req, err = ParseRequest[api.ResetSessionRequest](r)
		if err != nil {
			return nil, err
		}
	}

	if len(req.Keys) == 0 {
		sess.State().ClearAll()
	} else {
		sess.State().Clear(req.Keys...)
	}

	slog.Info("session reset", "session_id", sess.ID, "keys", req.Keys)
	return nil, nil
}

func (s *BackendService) GetHistory(r *http.Request) (any, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	entries := sess.History()

	resp := api.HistoryResponse{
		SessionId: sess.ID,
		Entries:   make([]api.HistoryEntry, len(entries)),
	}
	for i, entry := range entries {
		resp.Entries[i] = toHistoryEntry(entry)
	}
	return resp, nil
}

func toHistoryEntry(entry session.HistoryEntry) api.HistoryEntry {
	return api.HistoryEntry{
		Timestamp:    entry.Timestamp.Format(api.TimeFormat),
		EntryType:    entry.EntryType,
		SourceName:   entry.SourceName,
		SourceKind:   entry.SourceKind,
		ModelName:    entry.ModelName,
		AnalysisMode: entry.AnalysisMode,
		Query:        entry.Query,
		Response:     entry.Response,
	}
}

func (s *BackendService) GetOptions(r *http.Request) (any, error) {
	return api.OptionsResponse{
		Models:             analysis.Models(),
		AnalysisModes:      analysis.Modes(),
		LegalAnalysisTypes: analysis.AnalysisTypes(),
	}, nil
}
