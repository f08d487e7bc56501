package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefq/briefq/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#alerts",
		Username:   "bot",
		AdminURL:   "https://briefq.local",
	})
	require.NoError(t, err)

	msg := client.formatMessage(notify.DeadLetterPayload{
		EntryID:    "e-1",
		Queue:      "main-job-queue",
		JobName:    "searchQuery",
		RecordID:   "r-1",
		Attempts:   3,
		Error:      "boom <html>",
		ErrorClass: "processor",
		Cause:      notify.CauseRetriesExhausted,
		Metadata:   map[string]string{"job_type": "search"},
	})

	assert.Equal(t, "bot", msg["username"])
	assert.Equal(t, "#alerts", msg["channel"])

	text, ok := msg["text"].(string)
	require.True(t, ok)
	for _, want := range []string{
		"Dead-lettered job", "e-1", "searchQuery", "r-1", "Attempts: 3", "processor",
		"retries_exhausted", "boom &lt;html&gt;", "job_type: search",
		"<https://briefq.local/admin/queues/main-job-queue/entries|main-job-queue>",
	} {
		assert.Contains(t, text, want)
	}
}

func TestFormatMessageWithoutAdminURL(t *testing.T) {
	client, err := NewClient(Config{WebhookURL: "https://hooks.slack.com/services/test"})
	require.NoError(t, err)

	msg := client.formatMessage(notify.DeadLetterPayload{Queue: "news-queue"})
	text := msg["text"].(string)
	assert.Contains(t, text, "Queue: news-queue")
	assert.Equal(t, "briefq", msg["username"])
	_, hasChannel := msg["channel"]
	assert.False(t, hasChannel)
}

func TestSendDeadLetterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		var msg map[string]any
		if err := json.Unmarshal(body, &msg); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("try again"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, RetryLimit: 1, Timeout: time.Second})
	require.NoError(t, err)

	err = client.SendDeadLetter(context.Background(), notify.DeadLetterPayload{EntryID: "e-1"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendDeadLetterReturnsLastError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("invalid_token"))
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL})
	require.NoError(t, err)

	err = client.SendDeadLetter(context.Background(), notify.DeadLetterPayload{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid_token"))
}
