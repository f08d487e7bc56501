package data

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefq/briefq/internal/core"
	"github.com/briefq/briefq/internal/domain/model"
	"github.com/briefq/briefq/internal/testutil"
)

func newTestQueueRepo(t *testing.T) (*QueueRepo, *FixedTimeProvider) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	tp := NewFixedTimeProvider(time.Now().UTC().Truncate(time.Second))
	return NewQueueRepo(db, QueueRepoConfig{TimeProvider: tp}), tp
}

func enqueueSearch(t *testing.T, repo *QueueRepo, opts ...func(*model.EnqueueRequest)) *model.QueueEntry {
	t.Helper()
	req := &model.EnqueueRequest{
		Queue:   model.QueueMain,
		Name:    model.JobTypeSearch.JobName(),
		Payload: model.EntryPayload{Query: "golang generics", UserEmail: "a@example.com"},
	}
	for _, opt := range opts {
		opt(req)
	}
	e, err := repo.Enqueue(context.Background(), req)
	require.NoError(t, err)
	return e
}

func TestQueueRepo_EnqueueAndReserve(t *testing.T) {
	repo, _ := newTestQueueRepo(t)
	ctx := context.Background()

	e := enqueueSearch(t, repo)
	assert.Equal(t, model.EntryStatusPending, e.Status)
	assert.Equal(t, defaultMaxAttempts, e.MaxAttempts)
	assert.Equal(t, defaultMaxStalled, e.MaxStalled)

	p, err := model.DecodeEntryPayload(e.Payload)
	require.NoError(t, err)
	assert.Equal(t, "golang generics", p.Query)

	got, err := repo.ReserveNext(ctx, model.QueueMain, 30)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, model.EntryStatusRunning, got.Status)
	require.NotNil(t, got.LeaseExpiresAt)
	assert.NotEmpty(t, got.ReservationID)

	_, err = repo.ReserveNext(ctx, model.QueueMain, 30)
	require.ErrorIs(t, err, model.ErrNoEntriesAvailable)

	_, err = repo.ReserveNext(ctx, model.QueueNews, 30)
	require.ErrorIs(t, err, model.ErrNoEntriesAvailable)
}

func TestQueueRepo_ReserveNext_InvalidLease(t *testing.T) {
	repo, _ := newTestQueueRepo(t)
	_, err := repo.ReserveNext(context.Background(), model.QueueMain, 0)
	require.ErrorIs(t, err, ErrInvalidLease)
}

func TestQueueRepo_DelayedEntryNotVisible(t *testing.T) {
	repo, tp := newTestQueueRepo(t)
	ctx := context.Background()

	enqueueSearch(t, repo, func(r *model.EnqueueRequest) { r.Delay = time.Minute })

	_, err := repo.ReserveNext(ctx, model.QueueMain, 30)
	require.ErrorIs(t, err, model.ErrNoEntriesAvailable)

	tp.Advance(2 * time.Minute)
	_, err = repo.ReserveNext(ctx, model.QueueMain, 30)
	require.NoError(t, err)
}

func TestQueueRepo_AckAndHeartbeat(t *testing.T) {
	repo, _ := newTestQueueRepo(t)
	ctx := context.Background()

	enqueueSearch(t, repo)
	e, err := repo.ReserveNext(ctx, model.QueueMain, 30)
	require.NoError(t, err)

	ok, err := repo.Heartbeat(ctx, e.Lease(), 60)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Ack(ctx, e.Lease())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Ack(ctx, e.Lease())
	require.NoError(t, err)
	assert.False(t, ok, "second ack must be a no-op")

	ok, err = repo.Heartbeat(ctx, e.Lease(), 60)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.Nil(t, got.LeaseExpiresAt)
	assert.Empty(t, got.ReservationID)
}

func TestQueueRepo_SupersededLeaseIsRejected(t *testing.T) {
	repo, tp := newTestQueueRepo(t)
	ctx := context.Background()

	enqueueSearch(t, repo, func(r *model.EnqueueRequest) { r.MaxStalled = testutil.IntPtr(1) })
	first, err := repo.ReserveNext(ctx, model.QueueMain, 10)
	require.NoError(t, err)

	tp.Advance(11 * time.Second)
	_, err = repo.RecoverStalled(ctx, model.QueueMain)
	require.NoError(t, err)
	second, err := repo.ReserveNext(ctx, model.QueueMain, 10)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.NotEqual(t, first.ReservationID, second.ReservationID)

	ok, err := repo.Heartbeat(ctx, first.Lease(), 60)
	require.NoError(t, err)
	assert.False(t, ok, "old worker cannot extend the new reservation")

	ok, err = repo.Ack(ctx, first.Lease())
	require.NoError(t, err)
	assert.False(t, ok, "old worker cannot complete the new reservation")

	out, err := repo.Fail(ctx, model.FailRequest{ID: first.ID, ReservationID: first.ReservationID, Reason: "late"})
	require.NoError(t, err)
	assert.False(t, out.Updated, "old worker cannot fail the new reservation")

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusRunning, got.Status)
	assert.Zero(t, got.Attempts)

	ok, err = repo.Ack(ctx, second.Lease())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQueueRepo_FailTerminalDeadLettersWithBudgetLeft(t *testing.T) {
	repo, _ := newTestQueueRepo(t)
	ctx := context.Background()

	e := enqueueSearch(t, repo, func(r *model.EnqueueRequest) { r.MaxAttempts = 5 })
	got, err := repo.ReserveNext(ctx, model.QueueMain, 30)
	require.NoError(t, err)

	out, err := repo.Fail(ctx, model.FailRequest{
		ID:            e.ID,
		ReservationID: got.ReservationID,
		Reason:        "query is required",
		Terminal:      true,
	})
	require.NoError(t, err)
	assert.True(t, out.Updated)
	assert.True(t, out.DeadLettered)
	assert.Equal(t, 1, out.Attempts)

	stored, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusFailed, stored.Status)
}

func TestQueueRepo_FailRetriesThenDeadLetters(t *testing.T) {
	repo, tp := newTestQueueRepo(t)
	ctx := context.Background()

	e := enqueueSearch(t, repo, func(r *model.EnqueueRequest) { r.MaxAttempts = 2 })

	held, err := repo.ReserveNext(ctx, model.QueueMain, 30)
	require.NoError(t, err)

	retryAt := tp.Now().Add(5 * time.Second)
	out, err := repo.Fail(ctx, model.FailRequest{
		ID: e.ID, ReservationID: held.ReservationID, Reason: "provider down", RetryAt: retryAt,
	})
	require.NoError(t, err)
	assert.True(t, out.Updated)
	assert.False(t, out.DeadLettered)
	assert.Equal(t, 1, out.Attempts)
	require.NotNil(t, out.NextRunAt)
	assert.WithinDuration(t, retryAt, *out.NextRunAt, time.Second)

	_, err = repo.ReserveNext(ctx, model.QueueMain, 30)
	require.ErrorIs(t, err, model.ErrNoEntriesAvailable, "entry waits for its backoff")

	tp.Advance(10 * time.Second)
	held, err = repo.ReserveNext(ctx, model.QueueMain, 30)
	require.NoError(t, err)

	out, err = repo.Fail(ctx, model.FailRequest{ID: e.ID, ReservationID: held.ReservationID, Reason: "provider down again"})
	require.NoError(t, err)
	assert.True(t, out.DeadLettered)
	assert.Equal(t, 2, out.Attempts)
	assert.Nil(t, out.NextRunAt)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusFailed, got.Status)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "provider down again", *got.LastError)

	out, err = repo.Fail(ctx, model.FailRequest{ID: e.ID, ReservationID: held.ReservationID, Reason: "late"})
	require.NoError(t, err)
	assert.False(t, out.Updated, "failing a dead-lettered entry is a no-op")
}

func TestQueueRepo_Retry(t *testing.T) {
	repo, _ := newTestQueueRepo(t)
	ctx := context.Background()

	e := enqueueSearch(t, repo, func(r *model.EnqueueRequest) { r.MaxAttempts = 1 })

	ok, err := repo.Retry(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, ok, "pending entries are not retried")

	held, err := repo.ReserveNext(ctx, model.QueueMain, 30)
	require.NoError(t, err)
	out, err := repo.Fail(ctx, model.FailRequest{ID: e.ID, ReservationID: held.ReservationID, Reason: "boom"})
	require.NoError(t, err)
	require.True(t, out.DeadLettered)

	ok, err = repo.Retry(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusPending, got.Status)
	assert.Zero(t, got.Attempts)
	assert.Nil(t, got.LastError)
}

func TestQueueRepo_RetryReopensFailedRecord(t *testing.T) {
	records, repo := newTestRecordRepos(t)
	ctx := context.Background()

	rec := createSearchRecord(t, records, "q")
	e := enqueueSearch(t, repo, func(r *model.EnqueueRequest) {
		r.RecordID = &rec.ID
		r.MaxAttempts = 1
	})

	held, err := repo.ReserveNext(ctx, model.QueueMain, 30)
	require.NoError(t, err)
	_, err = repo.Fail(ctx, model.FailRequest{ID: e.ID, ReservationID: held.ReservationID, Reason: "boom"})
	require.NoError(t, err)
	_, err = records.MarkFailed(ctx, rec.ID, "boom")
	require.NoError(t, err)

	ok, err := repo.Retry(ctx, e.ID)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := records.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusPending, got.Status)
	assert.Nil(t, got.LastError)

	ok, err = records.MarkCompleted(ctx, model.CompleteRecordRequest{ID: rec.ID, Result: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.True(t, ok, "redelivery after retry completes the record")
}

func TestQueueRepo_RecoverStalled(t *testing.T) {
	repo, tp := newTestQueueRepo(t)
	ctx := context.Background()

	e := enqueueSearch(t, repo, func(r *model.EnqueueRequest) { r.MaxStalled = testutil.IntPtr(1) })
	_, err := repo.ReserveNext(ctx, model.QueueMain, 10)
	require.NoError(t, err)

	rec, err := repo.RecoverStalled(ctx, model.QueueMain)
	require.NoError(t, err)
	assert.Zero(t, rec.Requeued, "live lease is not stalled")
	assert.Empty(t, rec.DeadLettered)

	tp.Advance(11 * time.Second)
	rec, err = repo.RecoverStalled(ctx, model.QueueMain)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Requeued)
	assert.Empty(t, rec.DeadLettered)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusPending, got.Status)
	assert.Equal(t, 1, got.StalledCount)

	_, err = repo.ReserveNext(ctx, model.QueueMain, 10)
	require.NoError(t, err)
	tp.Advance(11 * time.Second)

	rec, err = repo.RecoverStalled(ctx, model.QueueMain)
	require.NoError(t, err)
	assert.Zero(t, rec.Requeued)
	require.Len(t, rec.DeadLettered, 1)
	assert.Equal(t, e.ID, rec.DeadLettered[0].ID)
	require.NotNil(t, rec.DeadLettered[0].LastError)
	assert.Equal(t, model.StalledErrorMessage, *rec.DeadLettered[0].LastError)
}

func TestQueueRepo_RecoverStalledDefaultBudget(t *testing.T) {
	repo, tp := newTestQueueRepo(t)
	ctx := context.Background()

	e := enqueueSearch(t, repo)
	require.Zero(t, e.MaxStalled)
	_, err := repo.ReserveNext(ctx, model.QueueMain, 10)
	require.NoError(t, err)

	tp.Advance(11 * time.Second)
	rec, err := repo.RecoverStalled(ctx, model.QueueMain)
	require.NoError(t, err)
	assert.Zero(t, rec.Requeued)
	require.Len(t, rec.DeadLettered, 1, "the first lease expiry dead-letters")
	assert.Empty(t, rec.DeadLettered[0].ReservationID)
}

func TestQueueRepo_StatsListAndActive(t *testing.T) {
	repo, _ := newTestQueueRepo(t)
	ctx := context.Background()

	recordID := "6b1f7c0e-5d2a-4c1b-9b7e-0d5c3f9a1e22"
	db := repo.DB
	_, err := db.ExecContext(ctx, `INSERT INTO job_records (id, job_type, payload, status) VALUES ($1, 'search', '{}', 'pending')`, recordID)
	require.NoError(t, err)

	enqueueSearch(t, repo, func(r *model.EnqueueRequest) { r.RecordID = &recordID })
	enqueueSearch(t, repo)

	active, err := repo.HasActiveEntry(ctx, recordID)
	require.NoError(t, err)
	assert.True(t, active)

	e, err := repo.ReserveNext(ctx, model.QueueMain, 30)
	require.NoError(t, err)
	_, err = repo.Ack(ctx, e.Lease())
	require.NoError(t, err)

	stats, err := repo.Stats(ctx, model.QueueMain)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Completed)
	assert.Zero(t, stats.Running)

	pending := model.EntryStatusPending
	list, err := repo.List(ctx, model.EntryListOptions{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	q := model.QueueNews
	list, err = repo.List(ctx, model.EntryListOptions{Queue: &q})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestQueueRepo_Reaper(t *testing.T) {
	repo, tp := newTestQueueRepo(t)
	ctx := context.Background()

	stale := enqueueSearch(t, repo)
	tp.Advance(2 * time.Hour)
	enqueueSearch(t, repo)

	failed, err := repo.FailStalePendingEntries(ctx, time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, stale.ID, failed[0].ID)

	got, err := repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusFailed, got.Status)
	require.NotNil(t, got.LastError)
	assert.Equal(t, StalePendingErrorMessage, *got.LastError)

	tp.Advance(48 * time.Hour)
	n, err := repo.DeleteOldEntries(ctx, core.DeleteOldEntriesParams{
		Status:    model.EntryStatusFailed,
		MaxAge:    24 * time.Hour,
		BatchSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByID(ctx, stale.ID)
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestQueueRepo_WaitForNotification(t *testing.T) {
	repo, _ := newTestQueueRepo(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- repo.WaitForNotification(ctx, model.QueueNews) }()

	// Give the listener time to LISTEN before publishing.
	time.Sleep(200 * time.Millisecond)
	_, err := repo.Enqueue(context.Background(), &model.EnqueueRequest{Queue: model.QueueNews, Name: "newsJob"})
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("notification not received")
	}
}
