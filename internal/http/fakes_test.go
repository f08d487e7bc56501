package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/briefq/briefq/internal/domain/model"
)

type fakeProducer struct {
	submitType model.JobType
	submitReq  model.SubmitJobRequest
	submitRes  *model.SubmitResult
	submitErr  error

	newsNote string
	newsErr  error

	retryOpts model.RetryPendingOptions
	retryRes  []*model.SubmitResult
	retryErr  error
}

func (f *fakeProducer) Submit(_ context.Context, jt model.JobType, req model.SubmitJobRequest) (*model.SubmitResult, error) {
	f.submitType, f.submitReq = jt, req
	return f.submitRes, f.submitErr
}

func (f *fakeProducer) SubmitNews(_ context.Context, note string) (*model.SubmitResult, error) {
	f.newsNote = note
	if f.newsErr != nil {
		return nil, f.newsErr
	}
	return &model.SubmitResult{JobID: "entry-news", DBID: "rec-news"}, nil
}

func (f *fakeProducer) RetryPending(_ context.Context, opts model.RetryPendingOptions) ([]*model.SubmitResult, error) {
	f.retryOpts = opts
	return f.retryRes, f.retryErr
}

type fakeRecords struct {
	rec *model.JobRecord
	err error
}

func (f *fakeRecords) GetByID(context.Context, string) (*model.JobRecord, error) { return f.rec, f.err }

type fakeHistory struct {
	kind      model.HistoryKind
	email     string
	appendReq model.AppendHistoryRequest
	ref       model.HistoryEntryRef
	rename    model.RenameHistoryRequest

	entries []*model.HistoryEntry
	doc     *model.HistoryDocument
	err     error
}

func (f *fakeHistory) List(_ context.Context, email string, kind model.HistoryKind) ([]*model.HistoryEntry, error) {
	f.email, f.kind = email, kind
	return f.entries, f.err
}

func (f *fakeHistory) Add(_ context.Context, req model.AppendHistoryRequest) (*model.HistoryDocument, error) {
	f.appendReq, f.kind = req, req.Kind
	return f.doc, f.err
}

func (f *fakeHistory) Clear(_ context.Context, email string, kind model.HistoryKind) (*model.HistoryDocument, error) {
	f.email, f.kind = email, kind
	return f.doc, f.err
}

func (f *fakeHistory) Delete(_ context.Context, ref model.HistoryEntryRef) (*model.HistoryDocument, error) {
	f.ref, f.kind = ref, ref.Kind
	return f.doc, f.err
}

func (f *fakeHistory) Rename(_ context.Context, kind model.HistoryKind, req model.RenameHistoryRequest) (*model.HistoryEntry, error) {
	f.kind, f.rename = kind, req
	if f.err != nil {
		return nil, f.err
	}
	return &model.HistoryEntry{ID: req.HistoryID, Query: req.NewQuery}, nil
}

type fakeAnalyses struct {
	limit int
	out   []*model.NewsAnalysis
	err   error
}

func (f *fakeAnalyses) ListLatest(_ context.Context, limit int) ([]*model.NewsAnalysis, error) {
	f.limit = limit
	return f.out, f.err
}

type fakeQueueAdmin struct {
	stats    []*model.QueueStats
	listOpts model.EntryListOptions
	entries  []*model.QueueEntry
	retryID  string
	err      error
}

func (f *fakeQueueAdmin) Stats(context.Context) ([]*model.QueueStats, error) { return f.stats, f.err }

func (f *fakeQueueAdmin) List(_ context.Context, opts model.EntryListOptions) ([]*model.QueueEntry, error) {
	f.listOpts = opts
	return f.entries, f.err
}

func (f *fakeQueueAdmin) Retry(_ context.Context, id string) error {
	f.retryID = id
	return f.err
}

type routerFixture struct {
	producer *fakeProducer
	records  *fakeRecords
	history  *fakeHistory
	analyses *fakeAnalyses
	queue    *fakeQueueAdmin
	handler  http.Handler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		producer: &fakeProducer{},
		records:  &fakeRecords{},
		history:  &fakeHistory{},
		analyses: &fakeAnalyses{},
		queue:    &fakeQueueAdmin{},
	}
	f.handler = NewRouter(RouterServices{
		Producer:           f.producer,
		Records:            f.records,
		History:            f.history,
		Analyses:           f.analyses,
		Queue:              f.queue,
		CORSAllowedOrigins: []string{"https://app.example.com"},
		Logger:             discardLogger(),
	})
	return f
}

func (f *routerFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
