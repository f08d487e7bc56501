package service

import (
	"encoding/json"
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// NoSummary is used when none of the summary expressions yields text.
const NoSummary = "No summary found."

// DefaultSummaryExpressions pick the first result's snippet, then its title.
func DefaultSummaryExpressions() []string {
	return []string{"results[0].snippet", "results[0].title"}
}

// SummaryExtractor evaluates JMESPath expressions in order against an opaque job result.
type SummaryExtractor struct {
	exprs []string
}

// NewSummaryExtractor validates exprs. An empty list uses DefaultSummaryExpressions.
func NewSummaryExtractor(exprs []string) (*SummaryExtractor, error) {
	var clean []string
	for _, e := range exprs {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, err := jmespath.Compile(e); err != nil {
			return nil, fmt.Errorf("invalid summary expression %q: %w", e, err)
		}
		clean = append(clean, e)
	}
	if len(clean) == 0 {
		clean = DefaultSummaryExpressions()
	}
	return &SummaryExtractor{exprs: clean}, nil
}

// Summary returns the first non-empty string any expression selects, or NoSummary.
func (s *SummaryExtractor) Summary(result json.RawMessage) string {
	if len(result) == 0 {
		return NoSummary
	}
	var doc any
	if err := json.Unmarshal(result, &doc); err != nil {
		return NoSummary
	}
	exprs := DefaultSummaryExpressions()
	if s != nil {
		exprs = s.exprs
	}
	for _, e := range exprs {
		v, err := jmespath.Search(e, doc)
		if err != nil {
			continue
		}
		if str, ok := v.(string); ok && strings.TrimSpace(str) != "" {
			return str
		}
	}
	return NoSummary
}
