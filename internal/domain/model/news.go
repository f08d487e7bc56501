package model

import (
	"errors"
	"strings"
	"time"
)

// NewsArticle is the headline snapshot a news job analyses.
type NewsArticle struct {
	SourceName  string `json:"sourceName,omitempty"`
	Author      string `json:"author,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
	Content     string `json:"content,omitempty"`
}

// AIAnalysis holds the raw model output for an article. The text is stored as returned.
type AIAnalysis struct {
	RawJSONText string `json:"rawJsonText"`
}

// NewsResult is the processed output of a news job.
type NewsResult struct {
	Article    NewsArticle `json:"article"`
	AIAnalysis AIAnalysis  `json:"aiAnalysis"`
	Duplicate  bool        `json:"duplicate"`
	StatusFlag bool        `json:"statusFlag"`
}

// NewsAnalysis is the permanent, URL-deduplicated analysis record.
type NewsAnalysis struct {
	ID          string    `json:"id"                    db:"id"`
	Title       string    `json:"title"                 db:"title"`
	Description string    `json:"description,omitempty" db:"description"`
	SourceName  string    `json:"sourceName,omitempty"  db:"source_name"`
	Author      string    `json:"author,omitempty"      db:"author"`
	URL         string    `json:"url"                   db:"url"`
	URLToImage  string    `json:"urlToImage,omitempty"  db:"url_to_image"`
	PublishedAt string    `json:"publishedAt,omitempty" db:"published_at"`
	Content     string    `json:"content,omitempty"     db:"content"`
	AIText      string    `json:"aiText"                db:"ai_text"`
	Status      bool      `json:"status"                db:"status"`
	RecordID    *string   `json:"jobId,omitempty"       db:"record_id"`
	CreatedAt   time.Time `json:"createdAt"             db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"             db:"updated_at"`
}

// CreateNewsAnalysisRequest is the input for inserting an analysis.
type CreateNewsAnalysisRequest struct {
	Article  NewsArticle
	AIText   string
	RecordID *string
}

// Validate requires the natural key and a title.
func (r *CreateNewsAnalysisRequest) Validate() error {
	if strings.TrimSpace(r.Article.URL) == "" {
		return errors.New("article url is required")
	}
	if strings.TrimSpace(r.Article.Title) == "" {
		return errors.New("article title is required")
	}
	return nil
}
