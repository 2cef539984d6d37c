package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/farmacia-api/internal/domain"
)

// Querier es lo común entre *pgxpool.Pool y pgx.Tx: los repos funcionan con ambos.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isBusy indica espera de bloqueo agotada, sentencia cancelada, deadlock o fallo de serialización.
func isBusy(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", // lock_not_available
			"57014", // query_canceled (statement_timeout)
			"40P01", // deadlock_detected
			"40001": // serialization_failure
			return true
		}
	}
	return false
}

// isCheckViolation indica que un CHECK de la tabla rechazó la fila (23514).
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// wrapErr agrega contexto a un error de BD y lo traduce a domain.ErrBusy o domain.ErrInvalidInput cuando corresponde.
func wrapErr(op string, err error) error {
	switch {
	case isBusy(err):
		return fmt.Errorf("%w: %s: %v", domain.ErrBusy, op, err)
	case isCheckViolation(err):
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// nullable convierte "" en NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
