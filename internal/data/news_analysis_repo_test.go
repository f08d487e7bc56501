package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefq/briefq/internal/domain/model"
	apperrors "github.com/briefq/briefq/internal/errors"
	"github.com/briefq/briefq/internal/testutil"
)

func TestNewsAnalysisRepo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	tp := NewFixedTimeProvider(time.Now().UTC().Truncate(time.Second))
	repo := NewNewsAnalysisRepo(db, tp)
	ctx := context.Background()

	article := func(url string) model.NewsArticle {
		return model.NewsArticle{Title: "Headline " + url, URL: url, SourceName: "Wire"}
	}

	t.Run("create and dedupe by url", func(t *testing.T) {
		a, err := repo.Create(ctx, &model.CreateNewsAnalysisRequest{Article: article("https://n.example/1"), AIText: `{"score":1}`})
		require.NoError(t, err)
		assert.True(t, a.Status)
		assert.Equal(t, `{"score":1}`, a.AIText)

		exists, err := repo.ExistsByURL(ctx, "https://n.example/1")
		require.NoError(t, err)
		assert.True(t, exists)

		_, err = repo.Create(ctx, &model.CreateNewsAnalysisRequest{Article: article("https://n.example/1"), AIText: "again"})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, "url", apperrors.GetField(err))
	})

	t.Run("list latest defaults to two", func(t *testing.T) {
		for _, u := range []string{"https://n.example/2", "https://n.example/3"} {
			tp.Advance(time.Second)
			_, err := repo.Create(ctx, &model.CreateNewsAnalysisRequest{Article: article(u), AIText: "{}"})
			require.NoError(t, err)
		}

		latest, err := repo.ListLatest(ctx, 0)
		require.NoError(t, err)
		require.Len(t, latest, 2)
		assert.Equal(t, "https://n.example/3", latest[0].URL)
		assert.Equal(t, "https://n.example/2", latest[1].URL)

		exists, err := repo.ExistsByURL(ctx, "https://n.example/missing")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.CreateNewsAnalysisRequest{Article: model.NewsArticle{Title: "no url"}})
		require.Error(t, err)
	})
}
