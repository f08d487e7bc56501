package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/briefq/briefq/internal/core"
	"github.com/briefq/briefq/internal/data"
	"github.com/briefq/briefq/internal/domain/model"
	apperrors "github.com/briefq/briefq/internal/errors"
)

// HistoryServiceOptions groups dependencies for HistoryService.
type HistoryServiceOptions struct {
	Repo   core.HistoryRepository // Required
	Logger *slog.Logger
}

// HistoryService serves the per-user search histories.
type HistoryService struct {
	repo   core.HistoryRepository
	logger *slog.Logger
}

// NewHistoryService constructs a HistoryService.
func NewHistoryService(opts HistoryServiceOptions) (*HistoryService, error) {
	if opts.Repo == nil {
		return nil, errors.New("HistoryRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryService{repo: opts.Repo, logger: logger.With("component", "history_service")}, nil
}

// List returns the user's entries oldest first. A user without history gets an empty list.
func (s *HistoryService) List(ctx context.Context, userEmail string, kind model.HistoryKind) ([]*model.HistoryEntry, error) {
	userEmail = strings.TrimSpace(userEmail)
	if err := checkOwner(userEmail, kind); err != nil {
		return nil, err
	}
	doc, err := s.document(ctx, userEmail, kind)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return []*model.HistoryEntry{}, nil
	}
	return doc.Entries, nil
}

// Add appends an entry and returns the updated document.
func (s *HistoryService) Add(ctx context.Context, req model.AppendHistoryRequest) (*model.HistoryDocument, error) {
	req.UserEmail = strings.TrimSpace(req.UserEmail)
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}
	if _, err := s.repo.Append(ctx, &req); err != nil {
		return nil, apperrors.Persistence(err, "append history")
	}
	return s.document(ctx, req.UserEmail, req.Kind)
}

// Clear removes every entry and returns the emptied document, or nil when the user had none.
func (s *HistoryService) Clear(ctx context.Context, userEmail string, kind model.HistoryKind) (*model.HistoryDocument, error) {
	userEmail = strings.TrimSpace(userEmail)
	if err := checkOwner(userEmail, kind); err != nil {
		return nil, err
	}
	n, err := s.repo.Clear(ctx, userEmail, kind)
	if err != nil {
		return nil, apperrors.Persistence(err, "clear history")
	}
	s.logger.InfoContext(ctx, "history cleared", "kind", kind, "removed", n)
	return s.document(ctx, userEmail, kind)
}

// Delete removes one entry and returns the remaining document. Deleting an unknown entry is a no-op.
func (s *HistoryService) Delete(ctx context.Context, ref model.HistoryEntryRef) (*model.HistoryDocument, error) {
	ref.UserEmail = strings.TrimSpace(ref.UserEmail)
	ref.EntryID = strings.TrimSpace(ref.EntryID)
	if err := ref.Validate(); err != nil {
		return nil, validationErr(err)
	}
	if _, err := s.repo.Delete(ctx, ref); err != nil {
		return nil, apperrors.Persistence(err, "delete history entry")
	}
	return s.document(ctx, ref.UserEmail, ref.Kind)
}

// Rename replaces an entry's query.
func (s *HistoryService) Rename(ctx context.Context, kind model.HistoryKind, req model.RenameHistoryRequest) (*model.HistoryEntry, error) {
	ref := model.HistoryEntryRef{
		UserEmail: strings.TrimSpace(req.UserEmail),
		Kind:      kind,
		EntryID:   strings.TrimSpace(req.HistoryID),
	}
	if err := ref.Validate(); err != nil {
		return nil, validationErr(err)
	}
	newQuery := strings.TrimSpace(req.NewQuery)
	if newQuery == "" {
		return nil, apperrors.ValidationField("newQuery", "newQuery is required")
	}

	e, err := s.repo.Rename(ctx, ref, newQuery)
	if errors.Is(err, data.ErrHistoryEntryNotFound) {
		return nil, apperrors.NotFoundf("history entry %s not found", ref.EntryID)
	}
	if err != nil {
		return nil, apperrors.Persistence(err, "rename history entry")
	}
	return e, nil
}

// document returns the user's document or nil when none exists.
func (s *HistoryService) document(ctx context.Context, userEmail string, kind model.HistoryKind) (*model.HistoryDocument, error) {
	doc, err := s.repo.Get(ctx, userEmail, kind)
	if errors.Is(err, model.ErrHistoryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Persistence(err, "load history")
	}
	return doc, nil
}

func checkOwner(userEmail string, kind model.HistoryKind) error {
	if userEmail == "" {
		return apperrors.ValidationField("userEmail", model.ErrUserEmailRequired.Error())
	}
	if !kind.Valid() {
		return apperrors.Validationf("invalid history kind %q", kind)
	}
	return nil
}

func validationErr(err error) error {
	if errors.Is(err, model.ErrUserEmailRequired) {
		return apperrors.ValidationField("userEmail", err.Error())
	}
	return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid history request")
}
