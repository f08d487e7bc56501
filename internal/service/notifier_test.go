package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/briefq/briefq/internal/domain/model"
	"github.com/briefq/briefq/internal/mocks"
)

func TestEmailNotifier_Notify(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockEmailSender(ctrl)
	n := NewEmailNotifier(EmailNotifierOptions{Sender: sender})
	ctx := context.Background()

	msg := SearchEmail(model.JobTypeSearch, "a@example.com", "S")

	t.Run("sent", func(t *testing.T) {
		sender.EXPECT().Send(gomock.Any(), msg).Return(nil)
		assert.True(t, n.Notify(ctx, msg))
	})

	t.Run("sender error is swallowed", func(t *testing.T) {
		sender.EXPECT().Send(gomock.Any(), msg).Return(errors.New("mailgun 500"))
		assert.False(t, n.Notify(ctx, msg))
	})

	t.Run("empty recipient", func(t *testing.T) {
		assert.False(t, n.Notify(ctx, model.EmailMessage{Subject: "x"}))
	})
}

func TestEmailNotifier_NoSender(t *testing.T) {
	n := NewEmailNotifier(EmailNotifierOptions{})
	assert.False(t, n.Notify(context.Background(), model.EmailMessage{To: "a@example.com"}))

	var nilNotifier *EmailNotifier
	assert.False(t, nilNotifier.Notify(context.Background(), model.EmailMessage{To: "a@example.com"}))
}

func TestEmailTemplates(t *testing.T) {
	msg := SearchEmail(model.JobTypeSearch, "a@example.com", "S")
	assert.Equal(t, SubjectSearch, msg.Subject)
	assert.Equal(t, "Your job is done!\n\nSummary:\nS", msg.Body)

	msg = SearchEmail(model.JobTypeGoogleSearch, "a@example.com", NoSummary)
	assert.Equal(t, SubjectGoogleSearch, msg.Subject)
	assert.Equal(t, "Your Google Search job is done!\n\nSummary:\nNo summary found.", msg.Body)

	msg = NewsEmail("d@example.com", &model.NewsResult{
		Article:    model.NewsArticle{Title: "Big news", URL: "https://n.example/1"},
		AIAnalysis: model.AIAnalysis{RawJSONText: `{"score":1}`},
	})
	assert.Equal(t, "Hourly news analysis: Big news", msg.Subject)
	assert.Contains(t, msg.Body, "https://n.example/1")
	assert.Contains(t, msg.Body, `{"score":1}`)
}
