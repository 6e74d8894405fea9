package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"analysis-backend/internal/database"
	"analysis-backend/internal/session"
	"analysis-backend/internal/tabular"
	"analysis-backend/pkg/api"
)

const maxUploadSize = 32 << 20 // 32MB

func fileKind(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return database.FileKindCSV, nil
	case ".json":
		return database.FileKindJSON, nil
	case ".pdf":
		return database.FileKindPDF, nil
	case ".txt", ".md":
		return database.FileKindText, nil
	default:
		return "", CodedErrorf(http.StatusBadRequest, "unsupported file type '%s': expected csv, json, pdf, txt, or md", filepath.Ext(name))
	}
}

func isDataset(kind string) bool {
	return kind == database.FileKindCSV || kind == database.FileKindJSON
}

// UploadFile accepts one multipart upload for the session. Datasets are
// parsed and profiled up front so malformed files are rejected at upload
// time; documents are chunked, embedded, and indexed into the session's
// collection. The raw body is kept in the object store either way.
func (s *BackendService) UploadFile(r *http.Request) (any, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form: %v", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "missing 'file' form field")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error reading uploaded file: %v", err)
	}
	if len(data) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "uploaded file '%s' is empty", header.Filename)
	}

	kind, err := fileKind(header.Filename)
	if err != nil {
		return nil, err
	}

	fileId := uuid.New()
	resp := api.UploadResponse{
		FileId: fileId,
		Name:   header.Filename,
		Kind:   kind,
		Size:   int64(len(data)),
	}

	if isDataset(kind) {
		table, err := parseTable(kind, data)
		if err != nil {
			return nil, err
		}
		resp.Rows = table.NumRows()
		resp.Columns = table.NumColumns()
	} else if s.kb == nil {
		return nil, CodedErrorf(http.StatusServiceUnavailable, "document uploads require an embedding backend, none is configured")
	}

	key := sess.ID.String() + "/" + fileId.String() + "/" + header.Filename
	if err := s.objects.PutObject(ctx, s.bucket, key, bytes.NewReader(data)); err != nil {
		slog.Error("error storing upload", "session_id", sess.ID, "key", key, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to store uploaded file")
	}

	record := database.UploadedFile{
		Id:         fileId,
		SessionId:  sess.ID,
		Name:       header.Filename,
		Kind:       kind,
		Size:       int64(len(data)),
		ObjectKey:  key,
		UploadTime: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		slog.Error("error creating upload record", "session_id", sess.ID, "error", err)
		s.removeUpload(ctx, sess.ID, uuid.Nil, key)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create upload record")
	}

	// Index documents only after the durable writes succeed, so a chunk
	// never becomes searchable for an upload that does not exist.
	if isDataset(kind) {
		sess.State().Set(session.KeyAnalysisMode, "data")
	} else {
		chunks, err := s.kb.Ingest(ctx, sess.ID, fileId, header.Filename, bytes.NewReader(data))
		if err != nil {
			s.removeUpload(ctx, sess.ID, fileId, key)
			return nil, CodedErrorf(http.StatusBadRequest, "error indexing document '%s': %v", header.Filename, err)
		}
		resp.Chunks = chunks
		sess.State().Set(session.KeyAnalysisMode, "legal")
	}

	slog.Info("file uploaded", "session_id", sess.ID, "file_id", fileId, "name", header.Filename, "kind", kind, "size", len(data))
	return resp, nil
}

// removeUpload undoes a partially completed upload: the stored object and,
// when fileId is set, its registry row.
func (s *BackendService) removeUpload(ctx context.Context, sessionId, fileId uuid.UUID, key string) {
	if err := s.objects.DeleteObjects(ctx, s.bucket, key); err != nil {
		slog.Error("error removing upload object", "session_id", sessionId, "key", key, "error", err)
	}
	if fileId == uuid.Nil {
		return
	}
	if err := s.db.WithContext(ctx).Delete(&database.UploadedFile{}, "id = ?", fileId).Error; err != nil {
		slog.Error("error removing upload record", "session_id", sessionId, "file_id", fileId, "error", err)
	}
}

func parseTable(kind string, data []byte) (*tabular.Table, error) {
	var (
		table *tabular.Table
		err   error
	)
	if kind == database.FileKindCSV {
		table, err = tabular.ParseCSV(bytes.NewReader(data))
	} else {
		table, err = tabular.ParseJSON(bytes.NewReader(data))
	}
	if err != nil {
		if errors.Is(err, tabular.ErrEmptyTable) {
			return nil, CodedErrorf(http.StatusBadRequest, "dataset has no rows")
		}
		return nil, CodedErrorf(http.StatusBadRequest, "error parsing dataset: %v", err)
	}
	return table, nil
}

func (s *BackendService) ListUploads(r *http.Request) (any, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	var records []database.UploadedFile
	if err := s.db.WithContext(r.Context()).Where("session_id = ?", sess.ID).Order("upload_time asc").Find(&records).Error; err != nil {
		slog.Error("error listing uploads", "session_id", sess.ID, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving uploads")
	}

	resp := api.ListUploadsResponse{Files: make([]api.UploadedFile, len(records))}
	for i, record := range records {
		resp.Files[i] = api.UploadedFile{
			FileId:     record.Id,
			Name:       record.Name,
			Kind:       record.Kind,
			Size:       record.Size,
			UploadTime: record.UploadTime.Format(api.TimeFormat),
		}
	}
	return resp, nil
}
