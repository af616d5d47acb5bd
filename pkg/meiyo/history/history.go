// Package history records how often texts were checked and the correction
// reports users submit about verdicts.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/meiyo/pkg/meiyo/internalerr"
)

// Column limits inherited from the original schema.
const (
	MaxQueryLen     = 255
	MaxReportLen    = 500
	MaxJudgementLen = 64
)

// Store is the persistence interface for query counts and reports.
type Store interface {
	Close() error

	// Queries
	IncrementQuery(ctx context.Context, text string) (int64, error)
	QueryCount(ctx context.Context, text string) (int64, error)
	TopQueries(ctx context.Context, k int) ([]QueryCount, error)

	// Reports
	AddReport(ctx context.Context, r Report) (Report, error)
	Reports(ctx context.Context, limit int) ([]Report, error)
}

// QueryCount is a checked text and how many times it was submitted.
type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Report is a user's disagreement with a verdict.
type Report struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Judgement string    `json:"judgement"` // what the user believes is right
	Verdict   string    `json:"verdict"`   // what the engine answered
	CreatedAt time.Time `json:"created_at"`
}

// CleanQuery trims text and enforces the query length limit.
func CleanQuery(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty query", internalerr.ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > MaxQueryLen {
		return "", fmt.Errorf("%w: query longer than %d characters", internalerr.ErrInvalidInput, MaxQueryLen)
	}
	return text, nil
}

// PrepareReport validates r and fills in its ID and creation time.
func PrepareReport(r Report, now time.Time) (Report, error) {
	r.Text = strings.TrimSpace(r.Text)
	r.Judgement = strings.TrimSpace(r.Judgement)
	switch {
	case r.Text == "":
		return r, fmt.Errorf("%w: empty report text", internalerr.ErrInvalidInput)
	case utf8.RuneCountInString(r.Text) > MaxReportLen:
		return r, fmt.Errorf("%w: report longer than %d characters", internalerr.ErrInvalidInput, MaxReportLen)
	case utf8.RuneCountInString(r.Judgement) > MaxJudgementLen:
		return r, fmt.Errorf("%w: judgement longer than %d characters", internalerr.ErrInvalidInput, MaxJudgementLen)
	}
	if r.ID == "" {
		r.ID = ulid.Make().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}
