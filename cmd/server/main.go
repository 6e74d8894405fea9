package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"analysis-backend/cmd"
	"analysis-backend/internal/analysis"
	"analysis-backend/internal/api"
	"analysis-backend/internal/database"
	"analysis-backend/internal/documents"
	"analysis-backend/internal/knowledge"
	"analysis-backend/internal/llm"
	"analysis-backend/internal/session"
	"analysis-backend/internal/storage"
)

type Config struct {
	Port        int    `env:"API_PORT" envDefault:"8001"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"analysis.db"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`

	QdrantURL    string `env:"QDRANT_URL" envDefault:""`
	QdrantAPIKey string `env:"QDRANT_API_KEY" envDefault:""`

	StorageDir        string `env:"STORAGE_DIR" envDefault:"./data/storage"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL" envDefault:""`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" envDefault:""`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" envDefault:""`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	UploadBucket      string `env:"UPLOAD_BUCKET" envDefault:"uploads"`

	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`
}

// legalModel is the fixed engine behind the agent team. The data analysis
// path picks its engine per request.
const legalModel = "gpt-4-turbo"

func createStorage(cfg Config) (storage.Provider, error) {
	if cfg.S3EndpointURL != "" || cfg.S3AccessKeyID != "" {
		return storage.NewS3Provider(&storage.S3ProviderConfig{
			S3EndpointURL:     cfg.S3EndpointURL,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
			S3Region:          cfg.S3Region,
		})
	}
	return storage.NewLocalProvider(cfg.StorageDir)
}

func createServer(service *api.BackendService, port int) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Analysis requests hold the connection while the model responds.
	r.Use(middleware.Timeout(120 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		service.AddRoutes(r)
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}

func main() {
	cmd.LoadEnvFile()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	slog.Info("starting backend", "port", cfg.Port, "database_url", cfg.DatabaseURL, "session_ttl", cfg.SessionTTL)

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}

	objects, err := createStorage(cfg)
	if err != nil {
		log.Fatalf("error creating storage client: %v", err)
	}
	if err := objects.CreateBucket(context.Background(), cfg.UploadBucket); err != nil {
		log.Fatalf("error creating upload bucket: %v", err)
	}

	var (
		kb      *knowledge.Base
		factory api.LLMFactory
		legal   *analysis.LegalTeam
	)
	if cfg.OpenAIAPIKey != "" {
		// The openai-go client resolves credentials from the environment.
		if err := os.Setenv("OPENAI_API_KEY", cfg.OpenAIAPIKey); err != nil {
			log.Fatalf("error setting api key: %v", err)
		}

		var store knowledge.Store
		if cfg.QdrantURL != "" {
			store = knowledge.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey)
			slog.Info("using qdrant vector store", "url", cfg.QdrantURL)
		} else {
			store = knowledge.NewGormStore(db)
			slog.Info("using local vector store")
		}

		kb = knowledge.NewBase(documents.NewDefaultParser(), llm.NewOpenAIEmbedder(), store)
		legal = analysis.NewLegalTeam(llm.NewOpenAI(legalModel, 0.7), kb)
		factory = func(engine string) (llm.LLM, error) {
			return llm.NewLangchain(engine, cfg.OpenAIAPIKey)
		}
	} else {
		slog.Warn("OPENAI_API_KEY not set, analysis and document endpoints are disabled")
	}

	sessions := session.NewManager(cfg.SessionTTL)

	service := api.NewBackendService(db, sessions, objects, cfg.UploadBucket, kb, factory, legal)

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sessions.RunSweeper(sweeperCtx, cfg.SweepInterval, func(id uuid.UUID) {
		service.ReleaseSessionData(context.Background(), id)
	})

	server := createServer(service, cfg.Port)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		stopSweeper()
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
