package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendHistoryRequest_Validate(t *testing.T) {
	req := AppendHistoryRequest{UserEmail: "a@x.com", Kind: HistoryKindPerplexity, Query: "abc"}
	require.NoError(t, req.Validate())

	req.UserEmail = "  "
	require.ErrorIs(t, req.Validate(), ErrUserEmailRequired)

	req.UserEmail = "a@x.com"
	req.Kind = "newsJob"
	require.Error(t, req.Validate())
}

func TestHistoryEntryRef_Validate(t *testing.T) {
	valid := HistoryEntryRef{UserEmail: "a@x.com", Kind: HistoryKindGoogle, EntryID: "e1"}
	assert.NoError(t, valid.Validate())

	missingUser := valid
	missingUser.UserEmail = ""
	assert.ErrorIs(t, missingUser.Validate(), ErrUserEmailRequired)

	missingID := valid
	missingID.EntryID = ""
	assert.Error(t, missingID.Validate())
}

func TestCreateNewsAnalysisRequest_Validate(t *testing.T) {
	req := CreateNewsAnalysisRequest{Article: NewsArticle{Title: "Headline", URL: "https://example.com/a"}}
	require.NoError(t, req.Validate())

	req.Article.URL = ""
	require.Error(t, req.Validate())

	req.Article.URL = "https://example.com/a"
	req.Article.Title = ""
	require.Error(t, req.Validate())
}
