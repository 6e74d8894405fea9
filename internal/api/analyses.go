package api

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"analysis-backend/internal/analysis"
	"analysis-backend/internal/database"
	"analysis-backend/internal/session"
	"analysis-backend/pkg/api"
)

const defaultModel = "GPT-4-Turbo"

// DataAnalysis runs one mode-guided or free-form analysis pass over a
// dataset upload and records the outcome in the session's history. The
// request blocks until the analysis completes; nothing is recorded if it
// fails.
func (s *BackendService) DataAnalysis(r *http.Request) (any, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.DataAnalysisRequest](r)
	if err != nil {
		return nil, err
	}

	if req.Model == "" {
		req.Model = defaultModel
	}
	engine, err := analysis.ResolveModel(req.Model)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "%v", err)
	}

	if strings.TrimSpace(req.Query) == "" {
		if req.Mode == "" {
			return nil, CodedErrorf(http.StatusBadRequest, "either 'mode' or 'query' is required")
		}
		if !slices.Contains(analysis.Modes(), req.Mode) {
			return nil, CodedErrorf(http.StatusBadRequest, "unknown analysis mode '%s'", req.Mode)
		}
	}

	if s.newLLM == nil {
		return nil, CodedErrorf(http.StatusServiceUnavailable, "no language model configured")
	}

	record, err := s.lookupUpload(r, sess.ID, req.FileId, true)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	data, err := s.objects.GetObject(ctx, s.bucket, record.ObjectKey)
	if err != nil {
		slog.Error("error fetching upload body", "session_id", sess.ID, "key", record.ObjectKey, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving dataset")
	}

	table, err := parseTable(record.Kind, data)
	if err != nil {
		return nil, err
	}

	client, err := s.newLLM(engine)
	if err != nil {
		slog.Error("error creating llm client", "engine", engine, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error initializing language model")
	}

	result, err := analysis.NewDataAnalyzer(client).Analyze(ctx, table, req.Mode, req.Query)
	if err != nil {
		slog.Error("data analysis failed", "session_id", sess.ID, "file_id", record.Id, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "analysis failed: %v", err)
	}

	sess.State().Set(session.KeySelectedModel, req.Model)
	sess.Record(session.HistoryEntry{
		EntryType:    "Data Analysis",
		SourceName:   record.Name,
		SourceKind:   record.Kind,
		ModelName:    req.Model,
		AnalysisMode: req.Mode,
		Query:        req.Query,
		Response:     result,
	})

	return api.DataAnalysisResponse{
		FileId: record.Id,
		Model:  req.Model,
		Mode:   req.Mode,
		Result: result,
	}, nil
}

// LegalAnalysis runs the agent team against the session's most recent
// document upload and records the outcome in the session's history.
func (s *BackendService) LegalAnalysis(r *http.Request) (any, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.LegalAnalysisRequest](r)
	if err != nil {
		return nil, err
	}

	if s.legal == nil {
		return nil, CodedErrorf(http.StatusServiceUnavailable, "no language model configured")
	}

	record, err := s.lookupUpload(r, sess.ID, uuid.Nil, false)
	if err != nil {
		return nil, err
	}

	report, err := s.legal.Analyze(r.Context(), sess.ID, req.AnalysisType, req.Query)
	if err != nil {
		if errors.Is(err, analysis.ErrUnknownAnalysisType) || errors.Is(err, analysis.ErrQueryRequired) {
			return nil, CodedErrorf(http.StatusBadRequest, "%v", err)
		}
		slog.Error("legal analysis failed", "session_id", sess.ID, "analysis_type", req.AnalysisType, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "analysis failed: %v", err)
	}

	sess.Record(session.HistoryEntry{
		EntryType:    "Legal Analysis",
		SourceName:   record.Name,
		SourceKind:   record.Kind,
		AnalysisMode: req.AnalysisType,
		Query:        req.Query,
		Response:     report.Analysis,
	})

	return api.LegalAnalysisResponse{
		AnalysisType:    req.AnalysisType,
		SourceName:      record.Name,
		Analysis:        report.Analysis,
		KeyPoints:       report.KeyPoints,
		Recommendations: report.Recommendations,
	}, nil
}

// lookupUpload resolves a file id to the session's upload record. A nil id
// selects the most recent upload of the wanted category (dataset or
// document).
func (s *BackendService) lookupUpload(r *http.Request, sessionId, fileId uuid.UUID, dataset bool) (*database.UploadedFile, error) {
	ctx := r.Context()
	kinds := []string{database.FileKindPDF, database.FileKindText}
	if dataset {
		kinds = []string{database.FileKindCSV, database.FileKindJSON}
	}

	var record database.UploadedFile
	query := s.db.WithContext(ctx).Where("session_id = ? AND kind IN ?", sessionId, kinds)
	if fileId != uuid.Nil {
		query = query.Where("id = ?", fileId)
	}

	if err := query.Order("upload_time desc").First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if fileId != uuid.Nil {
				return nil, CodedErrorf(http.StatusNotFound, "file %v not found", fileId)
			}
			if dataset {
				return nil, CodedErrorf(http.StatusUnprocessableEntity, "no dataset uploaded for this session")
			}
			return nil, CodedErrorf(http.StatusUnprocessableEntity, "no document uploaded for this session")
		}
		slog.Error("error looking up upload", "session_id", sessionId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving upload record")
	}

	return &record, nil
}
