package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/briefq/briefq/internal/core"
	"github.com/briefq/briefq/internal/domain/model"
	apperrors "github.com/briefq/briefq/internal/errors"
)

// newsURLConstraint is the unique index that deduplicates analyses.
const newsURLConstraint = "news_analyses_url_key"

// NewsAnalysisRepo stores news analyses keyed by article URL.
type NewsAnalysisRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewNewsAnalysisRepo creates a NewsAnalysisRepo.
func NewNewsAnalysisRepo(db *sql.DB, tp TimeProvider) *NewsAnalysisRepo {
	return &NewsAnalysisRepo{DB: db, timeProvider: nowOrReal(tp)}
}

const newsColumns = `id, title, description, source_name, author, url, url_to_image, published_at, content,
  ai_text, status, record_id, created_at, updated_at`

func scanNewsAnalysis(scanner rowScanner) (*model.NewsAnalysis, error) {
	a := &model.NewsAnalysis{}
	var recordID sql.NullString
	if err := scanner.Scan(
		&a.ID, &a.Title, &a.Description, &a.SourceName, &a.Author, &a.URL, &a.URLToImage,
		&a.PublishedAt, &a.Content, &a.AIText, &a.Status, &recordID, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.RecordID = nullableString(recordID)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

// Create inserts an analysis. A URL that was already analysed yields a conflict error.
func (r *NewsAnalysisRepo) Create(ctx context.Context, req *model.CreateNewsAnalysisRequest) (*model.NewsAnalysis, error) {
	if req == nil {
		return nil, errors.New("create news analysis request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	art := req.Article
	now := r.timeProvider.Now().UTC()
	a, err := scanNewsAnalysis(r.DB.QueryRowContext(ctx, `
		INSERT INTO news_analyses (title, description, source_name, author, url, url_to_image, published_at,
		                           content, ai_text, status, record_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10, $11, $11)
		RETURNING `+newsColumns,
		art.Title, art.Description, art.SourceName, art.Author, art.URL, art.URLToImage, art.PublishedAt,
		art.Content, req.AIText, nullIfEmpty(req.RecordID), now,
	))
	if apperrors.IsUniqueViolation(err, newsURLConstraint) {
		return nil, &apperrors.AppError{
			Code:    apperrors.ErrCodeConflict,
			Message: "article already analysed",
			Field:   "url",
			Cause:   err,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("insert news analysis: %w", err)
	}
	return a, nil
}

// ExistsByURL reports whether url has been analysed.
func (r *NewsAnalysisRepo) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM news_analyses WHERE url = $1)`, url).
		Scan(&exists); err != nil {
		return false, fmt.Errorf("check news url: %w", err)
	}
	return exists, nil
}

// ListLatest returns the newest analyses first.
func (r *NewsAnalysisRepo) ListLatest(ctx context.Context, limit int) ([]*model.NewsAnalysis, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+newsColumns+`
		FROM news_analyses
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, clampLimit(limit, 2))
	if err != nil {
		return nil, fmt.Errorf("list news analyses: %w", err)
	}
	defer rows.Close()

	out := []*model.NewsAnalysis{}
	for rows.Next() {
		a, err := scanNewsAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan news analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ core.NewsAnalysisRepository = (*NewsAnalysisRepo)(nil)
