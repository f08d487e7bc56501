package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/briefq/briefq/internal/domain/model"
)

// HistoryManager serves per-user search history.
type HistoryManager interface {
	List(ctx context.Context, userEmail string, kind model.HistoryKind) ([]*model.HistoryEntry, error)
	Add(ctx context.Context, req model.AppendHistoryRequest) (*model.HistoryDocument, error)
	Clear(ctx context.Context, userEmail string, kind model.HistoryKind) (*model.HistoryDocument, error)
	Delete(ctx context.Context, ref model.HistoryEntryRef) (*model.HistoryDocument, error)
	Rename(ctx context.Context, kind model.HistoryKind, req model.RenameHistoryRequest) (*model.HistoryEntry, error)
}

// HistoryHandlers serves one history kind. Responses use the {"success":true,"data":...} envelope.
type HistoryHandlers struct {
	Svc    HistoryManager
	Kind   model.HistoryKind
	Logger *slog.Logger
}

// List handles GET .../history?userEmail=.
func (h *HistoryHandlers) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Svc.List(r.Context(), r.URL.Query().Get("userEmail"), h.Kind)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	writeSuccess(w, entries)
}

// Add handles POST .../history/add.
func (h *HistoryHandlers) Add(w http.ResponseWriter, r *http.Request) {
	var req model.AppendHistoryRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.Kind = h.Kind

	doc, err := h.Svc.Add(r.Context(), req)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	writeSuccess(w, doc)
}

type clearHistoryRequest struct {
	UserEmail string `json:"userEmail"`
}

// Clear handles POST .../history/clear.
func (h *HistoryHandlers) Clear(w http.ResponseWriter, r *http.Request) {
	var req clearHistoryRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	doc, err := h.Svc.Clear(r.Context(), req.UserEmail, h.Kind)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	writeSuccess(w, doc)
}

// Delete handles DELETE .../history/{historyId}?userEmail=.
func (h *HistoryHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Svc.Delete(r.Context(), model.HistoryEntryRef{
		UserEmail: r.URL.Query().Get("userEmail"),
		Kind:      h.Kind,
		EntryID:   r.PathValue("historyId"),
	})
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	writeSuccess(w, doc)
}

// Rename handles POST .../history/rename.
func (h *HistoryHandlers) Rename(w http.ResponseWriter, r *http.Request) {
	var req model.RenameHistoryRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if _, err := h.Svc.Rename(r.Context(), h.Kind, req); err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	writeSuccess(w, nil)
}
