package core

import (
	"context"
	"encoding/json"

	"github.com/briefq/briefq/internal/domain/model"
)

// Outbound ports. Implementations live in internal/adapters.

// SearchProvider runs a search and returns the provider's result as opaque JSON.
type SearchProvider interface {
	Search(ctx context.Context, query string) (json.RawMessage, error)
}

// HeadlineSource fetches the current top headlines.
type HeadlineSource interface {
	TopHeadlines(ctx context.Context) ([]model.NewsArticle, error)
}

// ArticleAnalyzer produces the AI analysis text for an article.
type ArticleAnalyzer interface {
	Analyze(ctx context.Context, article model.NewsArticle) (string, error)
}

// EmailSender delivers one email.
type EmailSender interface {
	Send(ctx context.Context, msg model.EmailMessage) error
}
