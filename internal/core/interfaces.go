package core

import (
	"context"
	"time"

	"github.com/briefq/briefq/internal/domain/model"
)

// Repository ports consumed by the service layer. Implementations live in internal/data.

// QueueRepository is the durable lease queue.
type QueueRepository interface {
	Enqueue(ctx context.Context, req *model.EnqueueRequest) (*model.QueueEntry, error)
	GetByID(ctx context.Context, id string) (*model.QueueEntry, error)
	// ReserveNext returns model.ErrNoEntriesAvailable when nothing is ready.
	ReserveNext(ctx context.Context, queue model.QueueName, leaseSeconds int) (*model.QueueEntry, error)
	WaitForNotification(ctx context.Context, queue model.QueueName) error
	// Heartbeat, Ack and Fail only touch the entry while lease is still the current reservation.
	Heartbeat(ctx context.Context, lease model.Lease, leaseSeconds int) (bool, error)
	Ack(ctx context.Context, lease model.Lease) (bool, error)
	Fail(ctx context.Context, req model.FailRequest) (model.FailOutcome, error)
	// RecoverStalled requeues or dead-letters running entries whose lease expired.
	RecoverStalled(ctx context.Context, queue model.QueueName) (*model.StalledRecovery, error)
	// Retry moves a dead-lettered entry back to pending with a fresh attempt budget and
	// reopens its failed JobRecord.
	Retry(ctx context.Context, id string) (bool, error)
	Stats(ctx context.Context, queue model.QueueName) (*model.QueueStats, error)
	List(ctx context.Context, opts model.EntryListOptions) ([]*model.QueueEntry, error)
	HasActiveEntry(ctx context.Context, recordID string) (bool, error)
}

// JobRecordRepository stores JobRecords.
type JobRecordRepository interface {
	Create(ctx context.Context, req *model.CreateJobRecordRequest) (*model.JobRecord, error)
	GetByID(ctx context.Context, id string) (*model.JobRecord, error)
	// MarkCompleted returns false when the record is no longer pending.
	MarkCompleted(ctx context.Context, req model.CompleteRecordRequest) (bool, error)
	SetEmailSent(ctx context.Context, id string, sent bool) error
	// MarkFailed never overwrites a completed record.
	MarkFailed(ctx context.Context, id, reason string) (bool, error)
	// ListRetryable returns pending records with email_sent=false and no active queue entry.
	ListRetryable(ctx context.Context, opts model.RetryPendingOptions) ([]*model.JobRecord, error)
	List(ctx context.Context, opts model.RecordListOptions) ([]*model.JobRecord, error)
}

// HistoryRepository stores per-user search history.
type HistoryRepository interface {
	Append(ctx context.Context, req *model.AppendHistoryRequest) (*model.HistoryEntry, error)
	// SetEmailSent patches the entry carrying correlationID. Returns false when none matched.
	SetEmailSent(ctx context.Context, correlationID string, sent bool) (bool, error)
	// Get returns model.ErrHistoryNotFound when the user has no document of this kind.
	Get(ctx context.Context, userEmail string, kind model.HistoryKind) (*model.HistoryDocument, error)
	Clear(ctx context.Context, userEmail string, kind model.HistoryKind) (int64, error)
	Delete(ctx context.Context, ref model.HistoryEntryRef) (bool, error)
	Rename(ctx context.Context, ref model.HistoryEntryRef, newQuery string) (*model.HistoryEntry, error)
}

// NewsAnalysisRepository stores URL-deduplicated news analyses.
type NewsAnalysisRepository interface {
	// Create returns a conflict error when the URL was already analysed.
	Create(ctx context.Context, req *model.CreateNewsAnalysisRequest) (*model.NewsAnalysis, error)
	ExistsByURL(ctx context.Context, url string) (bool, error)
	ListLatest(ctx context.Context, limit int) ([]*model.NewsAnalysis, error)
}

// DeleteOldEntriesParams groups parameters for DeleteOldEntries.
type DeleteOldEntriesParams struct {
	Status    model.EntryStatus
	MaxAge    time.Duration
	BatchSize int
}

// ReaperRepository defines queue housekeeping operations.
type ReaperRepository interface {
	// FailStalePendingEntries dead-letters ready entries that waited longer than maxAge.
	FailStalePendingEntries(ctx context.Context, maxAge time.Duration, batchSize int) ([]*model.QueueEntry, error)
	// DeleteOldEntries deletes terminal entries older than MaxAge. Records are never touched.
	DeleteOldEntries(ctx context.Context, params DeleteOldEntriesParams) (int64, error)
}
