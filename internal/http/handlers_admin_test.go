package httpx

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefq/briefq/internal/domain/model"
	apperrors "github.com/briefq/briefq/internal/errors"
)

const entryID = "c4e8a2b6-7d1f-4a3e-b9c5-2f6d8e0a1b37"

func TestAdminHandlers_Stats(t *testing.T) {
	f := newRouterFixture(t)
	f.queue.stats = []*model.QueueStats{
		{Queue: model.QueueMain, Pending: 2, Running: 1},
		{Queue: model.QueueNews, Failed: 1},
	}

	rec := f.do(t, http.MethodGet, "/admin/queues", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"queue":"main-job-queue","pending":2,"running":1,"completed":0,"failed":0},
		{"queue":"news-queue","pending":0,"running":0,"completed":0,"failed":1}
	]`, rec.Body.String())
}

func TestAdminHandlers_ListEntries(t *testing.T) {
	f := newRouterFixture(t)
	f.queue.entries = []*model.QueueEntry{{ID: entryID, Queue: model.QueueGoogleSearch, Status: model.EntryStatusFailed}}

	rec := f.do(t, http.MethodGet, "/admin/queues/google-search-queue/entries?status=failed&limit=5&offset=10", "")

	require.Equal(t, http.StatusOK, rec.Code)
	opts := f.queue.listOpts
	require.NotNil(t, opts.Queue)
	require.NotNil(t, opts.Status)
	assert.Equal(t, model.QueueGoogleSearch, *opts.Queue)
	assert.Equal(t, model.EntryStatusFailed, *opts.Status)
	assert.Equal(t, 5, opts.Limit)
	assert.Equal(t, 10, opts.Offset)
	assert.Contains(t, rec.Body.String(), entryID)
}

func TestAdminHandlers_ListEntriesErrors(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/admin/queues/unknown-queue/entries", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin/queues/news-queue/entries?status=stuck", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "status", decodeBody(t, rec)["field"])
}

func TestAdminHandlers_RetryEntry(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		err        error
		wantStatus int
	}{
		{name: "retried", id: entryID, wantStatus: http.StatusOK},
		{name: "malformed id", id: "abc", wantStatus: http.StatusNotFound},
		{name: "unknown", id: entryID, err: apperrors.NotFound("queue entry not found"), wantStatus: http.StatusNotFound},
		{name: "not dead-lettered", id: entryID, err: apperrors.Conflict("entry is not dead-lettered"), wantStatus: http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t)
			f.queue.err = tt.err

			rec := f.do(t, http.MethodPost, "/admin/queues/entries/"+tt.id+"/retry", "")

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, entryID, f.queue.retryID)
			}
		})
	}
}
