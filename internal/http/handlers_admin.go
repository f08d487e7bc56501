package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/briefq/briefq/internal/domain/model"
	apperrors "github.com/briefq/briefq/internal/errors"
)

const (
	defaultEntryLimit = 50
	maxEntryLimit     = 500
)

// QueueAdmin exposes queue inspection and dead-letter retry.
type QueueAdmin interface {
	Stats(ctx context.Context) ([]*model.QueueStats, error)
	List(ctx context.Context, opts model.EntryListOptions) ([]*model.QueueEntry, error)
	Retry(ctx context.Context, id string) error
}

// AdminHandlers serves the /admin queue endpoints.
type AdminHandlers struct {
	Queue  QueueAdmin
	Logger *slog.Logger
}

// Stats handles GET /admin/queues.
func (h *AdminHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Queue.Stats(r.Context())
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// ListEntries handles GET /admin/queues/{queue}/entries?status=&limit=&offset=.
func (h *AdminHandlers) ListEntries(w http.ResponseWriter, r *http.Request) {
	var queue model.QueueName
	if err := queue.UnmarshalText([]byte(r.PathValue("queue"))); err != nil {
		RenderError(w, r, h.Logger, apperrors.NotFound(err.Error()))
		return
	}

	limit, offset := ParseLimitOffset(r, defaultEntryLimit, maxEntryLimit)
	opts := model.EntryListOptions{Queue: &queue, Limit: limit, Offset: offset}
	if v := r.URL.Query().Get("status"); v != "" {
		st := model.EntryStatus(v)
		if !st.Valid() {
			RenderError(w, r, h.Logger, apperrors.ValidationField("status", "status must be one of: pending, running, completed, failed"))
			return
		}
		opts.Status = &st
	}

	entries, err := h.Queue.List(r.Context(), opts)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	if entries == nil {
		entries = []*model.QueueEntry{}
	}
	WriteJSON(w, http.StatusOK, entries)
}

// RetryEntry handles POST /admin/queues/entries/{id}/retry.
func (h *AdminHandlers) RetryEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		RenderError(w, r, h.Logger, apperrors.NotFoundf("queue entry %s not found", id))
		return
	}
	if err := h.Queue.Retry(r.Context(), id); err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(model.EntryStatusPending)})
}
