package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/briefq/briefq/internal/core"
	"github.com/briefq/briefq/internal/data/pgxutil"
	"github.com/briefq/briefq/internal/domain/model"
)

// HistoryRepo stores one history document per (user, kind) with its entries as child rows.
type HistoryRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewHistoryRepo creates a HistoryRepo.
func NewHistoryRepo(db *sql.DB, tp TimeProvider) *HistoryRepo {
	return &HistoryRepo{DB: db, timeProvider: nowOrReal(tp)}
}

const historyEntryColumns = `e.id, e.correlation_id, e.record_id, e.query, e.result, e.status, e.email_sent, e.created_at`

func scanHistoryEntry(scanner rowScanner) (*model.HistoryEntry, error) {
	e := &model.HistoryEntry{}
	var (
		correlationID, recordID sql.NullString
		result                  []byte
	)
	if err := scanner.Scan(
		&e.ID, &correlationID, &recordID, &e.Query, &result, &e.Status, &e.EmailSent, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.CorrelationID = nullableString(correlationID)
	e.RecordID = nullableString(recordID)
	e.Result = cloneJSON(result)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

// Append adds an entry, creating the user's document on first use.
func (r *HistoryRepo) Append(ctx context.Context, req *model.AppendHistoryRequest) (*model.HistoryEntry, error) {
	if req == nil {
		return nil, errors.New("append history request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var result any
	if len(req.Result) > 0 {
		result = []byte(req.Result)
	}

	var entry *model.HistoryEntry
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			now := r.timeProvider.Now().UTC()
			var docID string
			if err := tx.QueryRowContext(ctx, `
				INSERT INTO history_documents (user_email, kind, created_at, updated_at)
				VALUES ($1, $2, $3, $3)
				ON CONFLICT (user_email, kind) DO UPDATE SET updated_at = EXCLUDED.updated_at
				RETURNING id
			`, req.UserEmail, req.Kind, now).Scan(&docID); err != nil {
				return fmt.Errorf("upsert history document: %w", err)
			}

			e, err := scanHistoryEntry(tx.QueryRowContext(ctx, `
				INSERT INTO history_entries AS e (document_id, correlation_id, record_id, query, result, status, email_sent, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING `+historyEntryColumns,
				docID, nullIfEmpty(req.CorrelationID), nullIfEmpty(req.RecordID), req.Query, result,
				req.Status, req.EmailSent, now,
			))
			if err != nil {
				return fmt.Errorf("insert history entry: %w", err)
			}
			entry = e
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SetEmailSent patches the entry with correlationID. Repeating the same value is a no-op that still matches.
func (r *HistoryRepo) SetEmailSent(ctx context.Context, correlationID string, sent bool) (bool, error) {
	if _, err := uuid.Parse(correlationID); err != nil {
		return false, nil
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE history_entries SET email_sent = $2 WHERE correlation_id = $1
	`, correlationID, sent)
	if err != nil {
		return false, fmt.Errorf("patch history entry: %w", err)
	}
	return rowsChanged(res)
}

// Get returns the user's document with entries oldest first.
func (r *HistoryRepo) Get(ctx context.Context, userEmail string, kind model.HistoryKind) (*model.HistoryDocument, error) {
	doc := &model.HistoryDocument{UserEmail: userEmail, Kind: kind}
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at FROM history_documents WHERE user_email = $1 AND kind = $2
	`, userEmail, kind).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get history document: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+historyEntryColumns+`
		FROM history_entries e
		WHERE e.document_id = $1
		ORDER BY e.created_at ASC, e.id ASC
	`, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}
	defer rows.Close()

	doc.Entries = []*model.HistoryEntry{}
	for rows.Next() {
		e, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		doc.Entries = append(doc.Entries, e)
	}
	return doc, rows.Err()
}

// Clear removes every entry of the user's document and keeps the document.
func (r *HistoryRepo) Clear(ctx context.Context, userEmail string, kind model.HistoryKind) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM history_entries e
		USING history_documents d
		WHERE e.document_id = d.id AND d.user_email = $1 AND d.kind = $2
	`, userEmail, kind)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes one entry owned by the referenced user.
func (r *HistoryRepo) Delete(ctx context.Context, ref model.HistoryEntryRef) (bool, error) {
	if _, err := uuid.Parse(ref.EntryID); err != nil {
		return false, nil
	}
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM history_entries e
		USING history_documents d
		WHERE e.document_id = d.id AND d.user_email = $1 AND d.kind = $2 AND e.id = $3
	`, ref.UserEmail, ref.Kind, ref.EntryID)
	if err != nil {
		return false, fmt.Errorf("delete history entry: %w", err)
	}
	return rowsChanged(res)
}

// Rename replaces the query text of one entry.
func (r *HistoryRepo) Rename(ctx context.Context, ref model.HistoryEntryRef, newQuery string) (*model.HistoryEntry, error) {
	if _, err := uuid.Parse(ref.EntryID); err != nil {
		return nil, ErrHistoryEntryNotFound
	}
	e, err := scanHistoryEntry(r.DB.QueryRowContext(ctx, `
		UPDATE history_entries e
		SET query = $4
		FROM history_documents d
		WHERE e.document_id = d.id AND d.user_email = $1 AND d.kind = $2 AND e.id = $3
		RETURNING `+historyEntryColumns,
		ref.UserEmail, ref.Kind, ref.EntryID, newQuery,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHistoryEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rename history entry: %w", err)
	}
	return e, nil
}

var _ core.HistoryRepository = (*HistoryRepo)(nil)
