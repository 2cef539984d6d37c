package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/farmacia-api/internal/domain"
)

func TestWrapErr_TraduceCodigosPostgres(t *testing.T) {
	cases := []struct {
		name string
		err  error
		busy bool
		want error
	}{
		{"lock_timeout", &pgconn.PgError{Code: "55P03"}, true, domain.ErrBusy},
		{"statement_timeout", &pgconn.PgError{Code: "57014"}, true, domain.ErrBusy},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true, domain.ErrBusy},
		{"serialization", &pgconn.PgError{Code: "40001"}, true, domain.ErrBusy},
		{"deadline", fmt.Errorf("scan: %w", context.DeadlineExceeded), true, domain.ErrBusy},
		{"check", &pgconn.PgError{Code: "23514"}, false, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.busy, isBusy(tc.err))
			assert.ErrorIs(t, wrapErr("apply delta", tc.err), tc.want)
		})
	}
}

func TestWrapErr_OtrosErroresSeConservan(t *testing.T) {
	base := &pgconn.PgError{Code: "23503"}
	err := wrapErr("insert movement", base)

	assert.False(t, isBusy(base))
	assert.NotErrorIs(t, err, domain.ErrBusy)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.Contains(t, err.Error(), "insert movement")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23514"}))
}
