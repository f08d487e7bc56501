package httpx

import (
	"log/slog"
	"net/http"

	"github.com/briefq/briefq/internal/domain/model"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Producer JobSubmitter
	Records  RecordReader
	History  HistoryManager
	Analyses AnalysisLister
	// Optional: queue administration. Admin routes are skipped when nil.
	Queue QueueAdmin
	// Optional: Prometheus exposition handler served at /metrics.
	Metrics http.Handler
	// Health checks run by /healthz, keyed by dependency name.
	Health             map[string]HealthCheck
	CORSAllowedOrigins []string
	Logger             *slog.Logger // Logger for request and error logs (optional)
}

// NewRouter creates and configures the HTTP router with logging, panic recovery and CORS.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	registerJobRoutes(mux, &JobHandlers{Producer: services.Producer, Records: services.Records, Logger: logger})
	registerHistoryRoutes(mux, "/api/myai", &HistoryHandlers{Svc: services.History, Kind: model.HistoryKindPerplexity, Logger: logger})
	registerHistoryRoutes(mux, "/api/google", &HistoryHandlers{Svc: services.History, Kind: model.HistoryKindGoogle, Logger: logger})
	registerNewsRoutes(mux, &NewsHandlers{Producer: services.Producer, Analyses: services.Analyses, Logger: logger})
	if services.Queue != nil {
		registerAdminRoutes(mux, &AdminHandlers{Queue: services.Queue, Logger: logger})
	}

	health := healthHandler(services.Health)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	if services.Metrics != nil {
		mux.Handle("GET /metrics", services.Metrics)
	}

	var handler http.Handler = mux
	handler = CORS("/api/", services.CORSAllowedOrigins)(handler)
	handler = Logging(logger)(handler)
	return Recover(logger)(handler)
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers) {
	mux.HandleFunc("POST /api/add-job", h.AddJob)
	mux.HandleFunc("POST /api/add-google-job", h.AddGoogleJob)
	mux.HandleFunc("POST /api/retry-pending", h.RetryPending)
	mux.HandleFunc("GET /api/jobs/{id}", h.GetJob)
}

func registerHistoryRoutes(mux *http.ServeMux, prefix string, h *HistoryHandlers) {
	mux.HandleFunc("GET "+prefix+"/history", h.List)
	mux.HandleFunc("POST "+prefix+"/history/add", h.Add)
	mux.HandleFunc("POST "+prefix+"/history/clear", h.Clear)
	mux.HandleFunc("POST "+prefix+"/history/rename", h.Rename)
	mux.HandleFunc("DELETE "+prefix+"/history/{historyId}", h.Delete)
}

func registerNewsRoutes(mux *http.ServeMux, h *NewsHandlers) {
	mux.HandleFunc("POST /api/news/run-news-once", h.RunOnce)
	mux.HandleFunc("GET /api/news/analyses", h.ListAnalyses)
}

func registerAdminRoutes(mux *http.ServeMux, h *AdminHandlers) {
	mux.HandleFunc("GET /admin/queues", h.Stats)
	mux.HandleFunc("GET /admin/queues/{queue}/entries", h.ListEntries)
	mux.HandleFunc("POST /admin/queues/entries/{id}/retry", h.RetryEntry)
}
