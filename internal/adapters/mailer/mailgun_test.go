package mailer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefq/briefq/config"
	"github.com/briefq/briefq/internal/domain/model"
)

func TestNewMailgunSender_RequiresCredentials(t *testing.T) {
	_, err := NewMailgunSender(MailgunOptions{Config: config.EmailConfig{Domain: "mg.example.com", From: "a@b.c"}})
	require.Error(t, err)

	_, err = NewMailgunSender(MailgunOptions{Config: config.EmailConfig{Domain: "mg.example.com", APIKey: "key"}})
	require.Error(t, err)
}

func TestMailgunSender_Send(t *testing.T) {
	var got struct {
		path, to, from, subject, text string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			_ = r.ParseForm()
		}
		got.to = r.FormValue("to")
		got.from = r.FormValue("from")
		got.subject = r.FormValue("subject")
		got.text = r.FormValue("text")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"<20250301.1@mg.example.com>","message":"Queued. Thank you."}`)
	}))
	defer srv.Close()

	s, err := NewMailgunSender(MailgunOptions{
		Config: config.EmailConfig{
			Domain:  "mg.example.com",
			APIKey:  "key-123",
			APIBase: srv.URL,
			From:    "briefq <no-reply@mg.example.com>",
		},
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	err = s.Send(context.Background(), model.EmailMessage{
		To:      "ada@example.com",
		Subject: "Your Perplexity Job Result",
		Body:    "Your job is done!\n\nSummary:\nx",
	})
	require.NoError(t, err)

	assert.Equal(t, "/v3/mg.example.com/messages", got.path)
	assert.Equal(t, "ada@example.com", got.to)
	assert.Equal(t, "briefq <no-reply@mg.example.com>", got.from)
	assert.Equal(t, "Your Perplexity Job Result", got.subject)
	assert.Equal(t, "Your job is done!\n\nSummary:\nx", got.text)
}

func TestMailgunSender_VersionedAPIBase(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"<1@mg.example.com>","message":"Queued. Thank you."}`)
	}))
	defer srv.Close()

	s, err := NewMailgunSender(MailgunOptions{
		Config:     config.EmailConfig{Domain: "mg.example.com", APIKey: "key", APIBase: srv.URL + "/v3", From: "a@mg.example.com"},
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	require.NoError(t, s.Send(context.Background(), model.EmailMessage{To: "ada@example.com", Subject: "s", Body: "b"}))
	assert.Equal(t, "/v3/mg.example.com/messages", path)
}

func TestMailgunSender_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `Forbidden`)
	}))
	defer srv.Close()

	s, err := NewMailgunSender(MailgunOptions{
		Config:     config.EmailConfig{Domain: "mg.example.com", APIKey: "bad", APIBase: srv.URL, From: "a@mg.example.com"},
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	err = s.Send(context.Background(), model.EmailMessage{To: "ada@example.com", Subject: "s", Body: "b"})
	require.Error(t, err)

	err = s.Send(context.Background(), model.EmailMessage{Subject: "s"})
	require.Error(t, err)
}
