package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/briefq/briefq/internal/domain/model"
)

// NoteManualTrigger is recorded on news jobs enqueued through the API.
const NoteManualTrigger = "Manual trigger from /api/news/run-news-once"

const (
	defaultAnalysesLimit = 2
	maxAnalysesLimit     = 50
)

// AnalysisLister reads stored news analyses.
type AnalysisLister interface {
	ListLatest(ctx context.Context, limit int) ([]*model.NewsAnalysis, error)
}

// NewsHandlers serves the news endpoints.
type NewsHandlers struct {
	Producer JobSubmitter
	Analyses AnalysisLister
	Logger   *slog.Logger
}

// RunOnce handles POST /api/news/run-news-once.
func (h *NewsHandlers) RunOnce(w http.ResponseWriter, r *http.Request) {
	res, err := h.Producer.SubmitNews(r.Context(), NoteManualTrigger)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, submitResponse{Message: "News job enqueued", JobID: res.JobID, DBID: res.DBID})
}

// ListAnalyses handles GET /api/news/analyses, newest first.
func (h *NewsHandlers) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit, _ := ParseLimitOffset(r, defaultAnalysesLimit, maxAnalysesLimit)
	out, err := h.Analyses.ListLatest(r.Context(), limit)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	if out == nil {
		out = []*model.NewsAnalysis{}
	}
	WriteJSON(w, http.StatusOK, out)
}
