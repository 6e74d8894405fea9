package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"analysis-backend/internal/analysis"
	"analysis-backend/internal/database"
	"analysis-backend/internal/knowledge"
	"analysis-backend/internal/llm"
	"analysis-backend/internal/session"
	"analysis-backend/internal/storage"
)

// LLMFactory builds a generation client for the given engine name. It is nil
// when no language model credentials are configured, in which case analysis
// endpoints report 503 instead of failing mid request.
type LLMFactory func(engine string) (llm.LLM, error)

type BackendService struct {
	db       *gorm.DB
	sessions *session.Manager
	objects  storage.Provider
	bucket   string

	kb     *knowledge.Base
	newLLM LLMFactory
	legal  *analysis.LegalTeam
}

func NewBackendService(db *gorm.DB, sessions *session.Manager, objects storage.Provider, bucket string, kb *knowledge.Base, newLLM LLMFactory, legal *analysis.LegalTeam) *BackendService {
	return &BackendService{
		db:       db,
		sessions: sessions,
		objects:  objects,
		bucket:   bucket,
		kb:       kb,
		newLLM:   newLLM,
		legal:    legal,
	}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Get("/options", RestHandler(s.GetOptions))
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", RestHandler(s.CreateSession))
		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/", RestHandler(s.GetSession))
			r.Delete("/", RestHandler(s.EndSession))
			r.Post("/reset", RestHandler(s.ResetSession))
			r.Get("/history", RestHandler(s.GetHistory))
			r.Post("/uploads", RestHandler(s.UploadFile))
			r.Get("/uploads", RestHandler(s.ListUploads))
			r.Post("/analyses/data", RestHandler(s.DataAnalysis))
			r.Post("/analyses/legal", RestHandler(s.LegalAnalysis))
		})
	})
}

// session resolves the {session_id} url parameter to a live session.
func (s *BackendService) session(r *http.Request) (*session.Session, error) {
	id, err := URLParamUUID(r, "session_id")
	if err != nil {
		return nil, err
	}

	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, CodedErrorf(http.StatusNotFound, "session %v not found", id)
	}
	return sess, nil
}

// ReleaseSessionData removes everything a session accumulated outside the
// manager: its vector collection, its stored upload bodies, and its upload
// registry rows. Used on explicit session end and by the idle sweeper.
func (s *BackendService) ReleaseSessionData(ctx context.Context, id uuid.UUID) {
	if s.kb != nil {
		if err := s.kb.Forget(ctx, id); err != nil {
			slog.Error("error dropping session collection", "session_id", id, "error", err)
		}
	}

	if err := s.objects.DeleteObjects(ctx, s.bucket, id.String()+"/"); err != nil {
		slog.Error("error deleting session objects", "session_id", id, "error", err)
	}

	if err := s.db.WithContext(ctx).Where("session_id = ?", id).Delete(&database.UploadedFile{}).Error; err != nil {
		slog.Error("error deleting session upload records", "session_id", id, "error", err)
	}
}
