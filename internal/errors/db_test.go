package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_Nil(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_Codes(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
	}{
		{name: "deadline", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, wantCode: ErrCodeCanceled},
		{name: "no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
		{
			name: "unique violation with column",
			err: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "news_analyses_url_key",
				ColumnName:     "url",
			},
			wantCode:  ErrCodeConflict,
			wantField: "url",
		},
		{
			name: "unique violation with detail",
			err: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: `Key (url)=(https://example.com/a) already exists.`,
			},
			wantCode:  ErrCodeConflict,
			wantField: "url",
		},
		{
			name:      "not null",
			err:       &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "title"},
			wantCode:  ErrCodeValidation,
			wantField: "title",
		},
		{
			name:     "foreign key",
			err:      &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "connection failure",
			err:      &pgconn.PgError{Code: pgerrcode.ConnectionFailure},
			wantCode: ErrCodePersistence,
		},
		{
			name:     "other postgres error",
			err:      &pgconn.PgError{Code: pgerrcode.DivisionByZero},
			wantCode: ErrCodePersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapDBError(fmt.Errorf("query: %w", tt.err))
			if code := GetCode(got); code != tt.wantCode {
				t.Fatalf("code = %q, want %q", code, tt.wantCode)
			}
			if field := GetField(got); field != tt.wantField {
				t.Errorf("field = %q, want %q", field, tt.wantField)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("mapped error should wrap the original")
			}
		})
	}
}

func TestMapDBError_PassesThroughForeignErrors(t *testing.T) {
	orig := errors.New("not a database error")
	if got := MapDBError(orig); !errors.Is(got, orig) || GetCode(got) != "" {
		t.Errorf("MapDBError should return non-database errors unchanged, got %v", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "news_analyses_url_key",
	})

	if !IsUniqueViolation(err, "") {
		t.Errorf("expected unique violation without constraint filter")
	}
	if !IsUniqueViolation(err, "news_analyses_url_key") {
		t.Errorf("expected unique violation for matching constraint")
	}
	if IsUniqueViolation(err, "history_entries_correlation_id_key") {
		t.Errorf("constraint filter should reject other constraints")
	}
	if IsUniqueViolation(errors.New("plain"), "") {
		t.Errorf("plain error is not a unique violation")
	}
}
