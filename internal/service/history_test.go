package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/briefq/briefq/internal/data"
	"github.com/briefq/briefq/internal/domain/model"
	apperrors "github.com/briefq/briefq/internal/errors"
	"github.com/briefq/briefq/internal/mocks"
)

func newTestHistoryService(t *testing.T) (*HistoryService, *mocks.MockHistoryRepository) {
	t.Helper()
	repo := mocks.NewMockHistoryRepository(gomock.NewController(t))
	svc, err := NewHistoryService(HistoryServiceOptions{Repo: repo})
	require.NoError(t, err)
	return svc, repo
}

func TestHistoryService_List(t *testing.T) {
	svc, repo := newTestHistoryService(t)
	ctx := context.Background()

	entries := []*model.HistoryEntry{{ID: "h-1", Query: "q"}}
	repo.EXPECT().Get(ctx, "ada@example.com", model.HistoryKindPerplexity).
		Return(&model.HistoryDocument{ID: "d-1", Entries: entries}, nil)
	got, err := svc.List(ctx, " ada@example.com ", model.HistoryKindPerplexity)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	repo.EXPECT().Get(ctx, "new@example.com", model.HistoryKindGoogle).Return(nil, model.ErrHistoryNotFound)
	got, err = svc.List(ctx, "new@example.com", model.HistoryKindGoogle)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = svc.List(ctx, "", model.HistoryKindGoogle)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "userEmail", apperrors.GetField(err))

	repo.EXPECT().Get(ctx, "ada@example.com", model.HistoryKindGoogle).Return(nil, errors.New("db down"))
	_, err = svc.List(ctx, "ada@example.com", model.HistoryKindGoogle)
	assert.True(t, apperrors.IsPersistence(err))
}

func TestHistoryService_Add(t *testing.T) {
	svc, repo := newTestHistoryService(t)
	ctx := context.Background()

	doc := &model.HistoryDocument{ID: "d-1", Entries: []*model.HistoryEntry{{ID: "h-1"}}}
	repo.EXPECT().Append(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.AppendHistoryRequest) (*model.HistoryEntry, error) {
			assert.Equal(t, "ada@example.com", req.UserEmail)
			assert.Equal(t, "q", req.Query)
			return &model.HistoryEntry{ID: "h-1"}, nil
		})
	repo.EXPECT().Get(ctx, "ada@example.com", model.HistoryKindPerplexity).Return(doc, nil)

	got, err := svc.Add(ctx, model.AppendHistoryRequest{
		UserEmail: "ada@example.com ",
		Kind:      model.HistoryKindPerplexity,
		Query:     "q",
	})
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	_, err = svc.Add(ctx, model.AppendHistoryRequest{Kind: model.HistoryKindPerplexity})
	assert.True(t, apperrors.IsValidation(err))
}

func TestHistoryService_Clear(t *testing.T) {
	svc, repo := newTestHistoryService(t)
	ctx := context.Background()

	repo.EXPECT().Clear(ctx, "ada@example.com", model.HistoryKindGoogle).Return(int64(3), nil)
	repo.EXPECT().Get(ctx, "ada@example.com", model.HistoryKindGoogle).
		Return(&model.HistoryDocument{ID: "d-1", Entries: []*model.HistoryEntry{}}, nil)
	doc, err := svc.Clear(ctx, "ada@example.com", model.HistoryKindGoogle)
	require.NoError(t, err)
	assert.Empty(t, doc.Entries)

	repo.EXPECT().Clear(ctx, "nobody@example.com", model.HistoryKindGoogle).Return(int64(0), nil)
	repo.EXPECT().Get(ctx, "nobody@example.com", model.HistoryKindGoogle).Return(nil, model.ErrHistoryNotFound)
	doc, err = svc.Clear(ctx, "nobody@example.com", model.HistoryKindGoogle)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestHistoryService_Delete(t *testing.T) {
	svc, repo := newTestHistoryService(t)
	ctx := context.Background()
	ref := model.HistoryEntryRef{UserEmail: "ada@example.com", Kind: model.HistoryKindPerplexity, EntryID: "h-1"}

	repo.EXPECT().Delete(ctx, ref).Return(false, nil)
	repo.EXPECT().Get(ctx, "ada@example.com", model.HistoryKindPerplexity).
		Return(&model.HistoryDocument{ID: "d-1"}, nil)
	doc, err := svc.Delete(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "d-1", doc.ID)

	_, err = svc.Delete(ctx, model.HistoryEntryRef{UserEmail: "ada@example.com", Kind: model.HistoryKindPerplexity})
	assert.True(t, apperrors.IsValidation(err))
}

func TestHistoryService_Rename(t *testing.T) {
	svc, repo := newTestHistoryService(t)
	ctx := context.Background()
	ref := model.HistoryEntryRef{UserEmail: "ada@example.com", Kind: model.HistoryKindGoogle, EntryID: "h-1"}

	repo.EXPECT().Rename(ctx, ref, "better title").Return(&model.HistoryEntry{ID: "h-1", Query: "better title"}, nil)
	e, err := svc.Rename(ctx, model.HistoryKindGoogle, model.RenameHistoryRequest{
		HistoryID: "h-1", NewQuery: " better title ", UserEmail: "ada@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "better title", e.Query)

	repo.EXPECT().Rename(ctx, ref, "x").Return(nil, data.ErrHistoryEntryNotFound)
	_, err = svc.Rename(ctx, model.HistoryKindGoogle, model.RenameHistoryRequest{
		HistoryID: "h-1", NewQuery: "x", UserEmail: "ada@example.com",
	})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Rename(ctx, model.HistoryKindGoogle, model.RenameHistoryRequest{HistoryID: "h-1", UserEmail: "ada@example.com"})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "newQuery", apperrors.GetField(err))
}
