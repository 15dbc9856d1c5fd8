package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fdg312/coach-hub/internal/ai"
	"github.com/fdg312/coach-hub/internal/auth"
	"github.com/fdg312/coach-hub/internal/blob"
	"github.com/fdg312/coach-hub/internal/coach"
	"github.com/fdg312/coach-hub/internal/config"
	"github.com/fdg312/coach-hub/internal/mealparse"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/profiles"
	"github.com/fdg312/coach-hub/internal/reports"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/storage/memory"
	"github.com/fdg312/coach-hub/internal/storage/postgres"
	"github.com/fdg312/coach-hub/internal/storage/sqlite"
	"github.com/fdg312/coach-hub/internal/telemetry"
	"github.com/fdg312/coach-hub/internal/userctx"
	"github.com/fdg312/coach-hub/internal/workouts"
)

// Server is the HTTP API of the coach.
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	storageMode    string
	sessions       *coach.Sessions
	authMiddleware *auth.Middleware
	otelShutdown   telemetry.Shutdown
}

// New builds the server: storage, collaborators and routes.
func New(cfg *config.Config) *Server {
	s := &Server{
		config:       cfg,
		mux:          http.NewServeMux(),
		otelShutdown: telemetry.NoopShutdown,
	}

	ctx := context.Background()
	if cfg.OtelEnabled {
		shutdown, err := telemetry.InitOtel(ctx)
		if err != nil {
			log.Printf("WARN telemetry: init failed, continuing without export: %v", err)
		} else {
			s.otelShutdown = shutdown
		}
	}

	s.initStorage(ctx)
	s.routes(ctx)
	return s
}

// initStorage picks the storage for STORAGE_MODE. Auto uses Postgres when a
// database URL is set and memory otherwise.
func (s *Server) initStorage(ctx context.Context) {
	mode := s.config.StorageMode
	if mode == "" || mode == config.StorageModeAuto {
		mode = config.StorageModeMemory
		if s.config.DatabaseURL != "" {
			mode = config.StorageModePostgres
		}
	}

	switch mode {
	case config.StorageModePostgres:
		log.Println("INFO storage: connecting to PostgreSQL...")
		pgStorage, err := postgres.New(ctx, s.config.DatabaseURL)
		if err != nil {
			if s.config.StorageMode == config.StorageModePostgres {
				log.Fatalf("FATAL storage: PostgreSQL connection failed: %v", err)
			}
			log.Printf("WARN storage: PostgreSQL connection failed, fallback to memory: %v", err)
			s.useMemory()
			return
		}
		log.Println("INFO storage: mode=postgres")
		s.storage = pgStorage
		s.storageMode = config.StorageModePostgres

	case config.StorageModeSQLite:
		sqliteStorage, err := sqlite.New(s.config.SQLitePath)
		if err != nil {
			log.Fatalf("FATAL storage: SQLite open failed (%s): %v", s.config.SQLitePath, err)
		}
		log.Printf("INFO storage: mode=sqlite path=%s", s.config.SQLitePath)
		s.storage = sqliteStorage
		s.storageMode = config.StorageModeSQLite

	default:
		s.useMemory()
	}
}

func (s *Server) useMemory() {
	log.Println("INFO storage: mode=memory")
	s.storage = memory.New()
	s.storageMode = config.StorageModeMemory
}

// routes registers the API.
func (s *Server) routes(ctx context.Context) {
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth
	authService := auth.NewService(s.config)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)
	if s.config.UsesAuth() {
		authHandler := auth.NewHandlers(authService)
		s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)
	}

	// Shared services
	workoutsService := workouts.NewService(s.storage, s.storage)
	nutritionService := nutrition.NewService(s.storage)

	// AI tiers: the mock provider only answers coach replies, so structured
	// extraction and lookup stay on their heuristic paths
	provider := ai.NewProvider(ctx, s.config)
	var parser *mealparse.Parser
	if ai.IsRemote(provider) {
		parser = mealparse.New(ai.NewRequester(provider, ai.PurposeMealParse))
	} else {
		parser = mealparse.New(nil)
	}
	enricher := nutrition.NewEnricher(nutrition.NewLookup(s.config, provider))
	responder := coach.NewResponder(ai.NewRequester(provider, ai.PurposeCoachReply))
	log.Printf("INFO ai: mode=%s remote_parse=%t lookup=%t", s.config.AIMode, parser.HasRemote(), enricher.HasLookup())

	// Coach
	s.sessions = coach.NewSessions()
	coachService := coach.NewService(coach.Options{
		Store:        s.storage,
		Parser:       parser,
		Enricher:     enricher,
		Responder:    responder,
		Plans:        workoutsService,
		Targets:      nutritionService,
		Sessions:     s.sessions,
		MaxInsights:  s.config.CoachMaxInsights,
		HistoryLimit: s.config.CoachHistoryLimit,
	})
	coachHandler := coach.NewHandler(coachService)

	s.mux.HandleFunc("POST /v1/coach/messages", coachHandler.HandleSendMessage)
	s.mux.HandleFunc("GET /v1/coach/messages", coachHandler.HandleListMessages)
	s.mux.HandleFunc("POST /v1/coach/drafts/{groupId}/confirm", coachHandler.HandleConfirmDrafts)
	s.mux.HandleFunc("POST /v1/coach/drafts/{groupId}/dismiss", coachHandler.HandleDismissDrafts)
	s.mux.HandleFunc("GET /v1/days/{date}", coachHandler.HandleGetDay)
	s.mux.HandleFunc("PATCH /v1/meals/{id}", coachHandler.HandleUpdateMeal)

	// Profile
	profileHandler := profiles.NewHandler(profiles.NewService(s.storage))
	s.mux.HandleFunc("GET /v1/profile", profileHandler.HandleGet)
	s.mux.HandleFunc("PATCH /v1/profile", s.markStale(profileHandler.HandleUpdate))
	s.mux.HandleFunc("POST /v1/profile/onboarding/reset", s.markStale(profileHandler.HandleResetOnboarding))

	// Workouts
	workoutsHandler := workouts.NewHandlers(workoutsService)
	s.mux.HandleFunc("GET /v1/workouts/plan", workoutsHandler.HandleGetPlan)
	s.mux.HandleFunc("PUT /v1/workouts/plan", s.markStale(workoutsHandler.HandleReplacePlan))
	s.mux.HandleFunc("GET /v1/workouts", workoutsHandler.HandleList)

	// Nutrition targets
	nutritionHandler := nutrition.NewHandler(nutritionService)
	s.mux.HandleFunc("GET /v1/nutrition/targets", nutritionHandler.HandleGetTargets)
	s.mux.HandleFunc("PUT /v1/nutrition/targets", s.markStale(nutritionHandler.HandleUpsertTargets))

	// Reports
	blobStore, blobMode, err := blob.NewBlobStore(ctx, s.config.Blob, log.Default())
	if err != nil {
		log.Fatalf("FATAL blob: failed to initialize reports store: %v", err)
	}
	log.Printf("INFO reports: storage=%s", blobMode)
	reportsService := reports.NewService(
		s.storage,
		reports.NewGenerator(s.storage, nutritionService),
		blobStore,
		reports.Options{
			MaxRangeDays:    s.config.ReportsMaxRangeDays,
			PresignTTL:      s.config.Blob.S3.PresignTTLSeconds,
			PublicBaseURL:   s.config.Blob.S3.PublicBaseURL,
			PreferPublicURL: s.config.Blob.S3.PreferPublicURL,
		},
	)
	reportsHandler := reports.NewHandlers(reportsService)
	s.mux.HandleFunc("POST /v1/reports", reportsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/reports", reportsHandler.HandleList)
	s.mux.HandleFunc("GET /v1/reports/{id}/download", reportsHandler.HandleDownload)
	s.mux.HandleFunc("DELETE /v1/reports/{id}", reportsHandler.HandleDelete)
}

// markStale drops the cached coach session of the user after a successful
// write that changes what the coach knows.
func (s *Server) markStale(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		if rec.status >= 300 {
			return
		}
		if userID, ok := userctx.GetUserID(r.Context()); ok {
			s.sessions.MarkStale(userID)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// handleHealthz reports liveness and the active storage.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"storage": s.storageMode,
	})
}

// Handler returns the router wrapped in the middleware chain, outermost
// first: CORS, rate limit, auth, timezone.
func (s *Server) Handler() http.Handler {
	loc, err := time.LoadLocation(s.config.DefaultTimeZone)
	if err != nil || s.config.DefaultTimeZone == "" {
		loc = time.UTC
	}

	var handler http.Handler = s.mux
	handler = userctx.TimezoneMiddleware(loc)(handler)
	handler = s.authMiddleware.Handler(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	log.Printf("INFO server: listening on http://localhost%s", addr)
	log.Printf("INFO server: health check http://localhost%s/healthz", addr)

	return http.ListenAndServe(addr, s.Handler())
}

// Close flushes telemetry and closes the storage.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.otelShutdown(ctx); err != nil {
		log.Printf("WARN telemetry: shutdown: %v", err)
	}
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
