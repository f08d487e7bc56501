package data

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefq/briefq/internal/domain/model"
	"github.com/briefq/briefq/internal/testutil"
)

func newTestRecordRepos(t *testing.T) (*JobRecordRepo, *QueueRepo) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	tp := NewFixedTimeProvider(time.Now().UTC().Truncate(time.Second))
	return NewJobRecordRepo(db, JobRecordRepoConfig{TimeProvider: tp}), NewQueueRepo(db, QueueRepoConfig{TimeProvider: tp})
}

func createSearchRecord(t *testing.T, repo *JobRecordRepo, query string) *model.JobRecord {
	t.Helper()
	rec, err := repo.Create(context.Background(), &model.CreateJobRecordRequest{
		Type:      model.JobTypeSearch,
		Payload:   model.JobPayload{Query: query},
		UserEmail: testutil.StringPtr("user@example.com"),
	})
	require.NoError(t, err)
	return rec
}

func TestJobRecordRepo_CreateAndGet(t *testing.T) {
	repo, _ := newTestRecordRepos(t)
	ctx := context.Background()

	rec := createSearchRecord(t, repo, "what is a goroutine")
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, model.RecordStatusPending, rec.Status)
	assert.False(t, rec.EmailSent)
	assert.Equal(t, "user@example.com", rec.Email())
	assert.Nil(t, rec.Result)

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	var p model.JobPayload
	require.NoError(t, json.Unmarshal(got.Payload, &p))
	assert.Equal(t, "what is a goroutine", p.Query)

	_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, ErrRecordNotFound)

	_, err = repo.Create(ctx, &model.CreateJobRecordRequest{Type: model.JobTypeSearch})
	require.Error(t, err)
}

func TestJobRecordRepo_CompleteAndNotify(t *testing.T) {
	repo, _ := newTestRecordRepos(t)
	ctx := context.Background()

	rec := createSearchRecord(t, repo, "q")
	result := json.RawMessage(`{"answer":"42"}`)

	ok, err := repo.MarkCompleted(ctx, model.CompleteRecordRequest{ID: rec.ID, Result: result})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkCompleted(ctx, model.CompleteRecordRequest{ID: rec.ID, Result: json.RawMessage(`{"answer":"43"}`)})
	require.NoError(t, err)
	assert.False(t, ok, "completed records keep their first result")

	require.NoError(t, repo.SetEmailSent(ctx, rec.ID, true))

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusCompleted, got.Status)
	assert.True(t, got.EmailSent)
	assert.JSONEq(t, `{"answer":"42"}`, string(got.Result))

	missing := "00000000-0000-0000-0000-000000000000"
	_, err = repo.MarkCompleted(ctx, model.CompleteRecordRequest{ID: missing})
	require.ErrorIs(t, err, ErrRecordNotFound)
	require.ErrorIs(t, repo.SetEmailSent(ctx, missing, true), ErrRecordNotFound)
}

func TestJobRecordRepo_MarkFailed(t *testing.T) {
	repo, _ := newTestRecordRepos(t)
	ctx := context.Background()

	failing := createSearchRecord(t, repo, "a")
	ok, err := repo.MarkFailed(ctx, failing.ID, "provider down")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, failing.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusFailed, got.Status)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "provider down", *got.LastError)

	ok, err = repo.MarkCompleted(ctx, model.CompleteRecordRequest{ID: failing.ID, Result: json.RawMessage(`{"answer":"late"}`)})
	require.NoError(t, err)
	assert.False(t, ok, "a failed record is not completed by a stale delivery")

	got, err = repo.GetByID(ctx, failing.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusFailed, got.Status)
	assert.Empty(t, got.Result)

	done := createSearchRecord(t, repo, "b")
	_, err = repo.MarkCompleted(ctx, model.CompleteRecordRequest{ID: done.ID})
	require.NoError(t, err)
	ok, err = repo.MarkFailed(ctx, done.ID, "late")
	require.NoError(t, err)
	assert.False(t, ok, "completed records never fail")
}

func TestJobRecordRepo_ListRetryable(t *testing.T) {
	repo, queue := newTestRecordRepos(t)
	ctx := context.Background()

	orphan := createSearchRecord(t, repo, "orphan")
	queued := createSearchRecord(t, repo, "queued")
	done := createSearchRecord(t, repo, "done")

	_, err := queue.Enqueue(ctx, &model.EnqueueRequest{
		Queue:    model.QueueMain,
		Name:     model.JobTypeSearch.JobName(),
		RecordID: &queued.ID,
	})
	require.NoError(t, err)
	_, err = repo.MarkCompleted(ctx, model.CompleteRecordRequest{ID: done.ID})
	require.NoError(t, err)

	news, err := repo.Create(ctx, &model.CreateJobRecordRequest{Type: model.JobTypeNews})
	require.NoError(t, err)

	recs, err := repo.ListRetryable(ctx, model.RetryPendingOptions{})
	require.NoError(t, err)
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{orphan.ID, news.ID}, ids)

	search := model.JobTypeSearch
	recs, err = repo.ListRetryable(ctx, model.RetryPendingOptions{Type: &search, Limit: 10})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, orphan.ID, recs[0].ID)
}

func TestJobRecordRepo_List(t *testing.T) {
	repo, _ := newTestRecordRepos(t)
	ctx := context.Background()

	a := createSearchRecord(t, repo, "a")
	createSearchRecord(t, repo, "b")
	_, err := repo.MarkCompleted(ctx, model.CompleteRecordRequest{ID: a.ID})
	require.NoError(t, err)

	all, err := repo.List(ctx, model.RecordListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed := model.RecordStatusCompleted
	list, err := repo.List(ctx, model.RecordListOptions{Status: &completed})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	list, err = repo.List(ctx, model.RecordListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
