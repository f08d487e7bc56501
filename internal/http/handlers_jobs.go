// Package httpx provides HTTP handlers and utilities for the briefq job API.
package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/briefq/briefq/internal/data"
	"github.com/briefq/briefq/internal/domain/model"
	apperrors "github.com/briefq/briefq/internal/errors"
)

// JobSubmitter creates job records and enqueues them.
type JobSubmitter interface {
	Submit(ctx context.Context, jobType model.JobType, req model.SubmitJobRequest) (*model.SubmitResult, error)
	SubmitNews(ctx context.Context, note string) (*model.SubmitResult, error)
	RetryPending(ctx context.Context, opts model.RetryPendingOptions) ([]*model.SubmitResult, error)
}

// RecordReader loads job records for polling.
type RecordReader interface {
	GetByID(ctx context.Context, id string) (*model.JobRecord, error)
}

// JobHandlers provides HTTP handlers for job submission and polling.
type JobHandlers struct {
	Producer JobSubmitter
	Records  RecordReader
	Logger   *slog.Logger
}

type submitResponse struct {
	Message string `json:"message"`
	JobID   string `json:"jobId"`
	DBID    string `json:"dbId"`
}

// AddJob handles POST /api/add-job.
func (h *JobHandlers) AddJob(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, model.JobTypeSearch)
}

// AddGoogleJob handles POST /api/add-google-job.
func (h *JobHandlers) AddGoogleJob(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, model.JobTypeGoogleSearch)
}

func (h *JobHandlers) submit(w http.ResponseWriter, r *http.Request, jobType model.JobType) {
	var req model.SubmitJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Producer.Submit(r.Context(), jobType, req)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, submitResponse{Message: "Job added", JobID: res.JobID, DBID: res.DBID})
}

type retryPendingResponse struct {
	Message string                `json:"message"`
	Jobs    []*model.SubmitResult `json:"jobs"`
}

const maxRetryPending = 500

// RetryPending handles POST /api/retry-pending. An optional ?type= scopes the sweep.
func (h *JobHandlers) RetryPending(w http.ResponseWriter, r *http.Request) {
	opts := model.RetryPendingOptions{Limit: parseIntQuery(r, "limit", maxRetryPending)}
	if opts.Limit < 1 || opts.Limit > maxRetryPending {
		opts.Limit = maxRetryPending
	}
	if v := r.URL.Query().Get("type"); v != "" {
		var jt model.JobType
		if err := jt.UnmarshalText([]byte(v)); err != nil {
			RenderError(w, r, h.Logger, apperrors.ValidationField("type", err.Error()))
			return
		}
		opts.Type = &jt
	}

	res, err := h.Producer.RetryPending(r.Context(), opts)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	if len(res) == 0 {
		WriteJSON(w, http.StatusOK, retryPendingResponse{Message: "No pending jobs found", Jobs: []*model.SubmitResult{}})
		return
	}
	WriteJSON(w, http.StatusOK, retryPendingResponse{Message: "Jobs requeued", Jobs: res})
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		RenderError(w, r, h.Logger, apperrors.NotFoundf("job %s not found", id))
		return
	}

	rec, err := h.Records.GetByID(r.Context(), id)
	if errors.Is(err, data.ErrRecordNotFound) {
		RenderError(w, r, h.Logger, apperrors.NotFoundf("job %s not found", id))
		return
	}
	if err != nil {
		RenderError(w, r, h.Logger, apperrors.Persistence(err, "get job record"))
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}
