package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedVersionsSorted(t *testing.T) {
	versions, err := embeddedVersions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)

	assert.Equal(t, "0001_job_records", versions[0])
	assert.IsIncreasing(t, versions)
}

func TestEmbeddedMigrationsDeclareCoreTables(t *testing.T) {
	versions, err := embeddedVersions()
	require.NoError(t, err)

	var all string
	for _, v := range versions {
		body, err := migrationsFS.ReadFile("migrations/" + v + ".sql")
		require.NoError(t, err)
		all += string(body)
	}

	for _, table := range []string{"job_records", "queue_entries", "history_documents", "history_entries", "news_analyses"} {
		assert.Contains(t, all, "CREATE TABLE IF NOT EXISTS "+table, table)
	}
	assert.Contains(t, all, "CONSTRAINT news_analyses_url_key UNIQUE (url)")
}
