package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryExtractor(t *testing.T) {
	ex, err := NewSummaryExtractor(nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		result string
		want   string
	}{
		{"snippet", `{"results":[{"title":"T","snippet":"S"}]}`, "S"},
		{"title fallback", `{"results":[{"title":"T","snippet":""}]}`, "T"},
		{"no results", `{"results":[]}`, NoSummary},
		{"not json", `nope`, NoSummary},
		{"empty", ``, NoSummary},
		{"non string", `{"results":[{"snippet":42}]}`, NoSummary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ex.Summary(json.RawMessage(tt.result)))
		})
	}
}

func TestSummaryExtractorCustomExpressions(t *testing.T) {
	ex, err := NewSummaryExtractor([]string{" answer ", ""})
	require.NoError(t, err)
	assert.Equal(t, "42", ex.Summary(json.RawMessage(`{"answer":"42"}`)))

	_, err = NewSummaryExtractor([]string{"results[0"})
	require.Error(t, err)
}
