package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agencyops/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// queryable is satisfied by both *pgxpool.Pool and pgx.Tx
type queryable interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// classifyError maps constraint violations onto domain errors so callers can use errors.Is
func classifyError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", models.ErrAlreadyExists, pgErr.ConstraintName)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %s", models.ErrValidation, pgErr.Detail)
	case pgCheckViolation:
		return fmt.Errorf("%w: %s", models.ErrValidation, pgErr.Message)
	}
	return err
}

// whereBuilder accumulates optional filter conditions with positional arguments
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereBuilder) addPeriod(prefix string, period *models.FiscalPeriod) {
	if period == nil {
		return
	}
	w.add(prefix+"fiscal_year = $%d", period.Year)
	w.add(prefix+"fiscal_month = $%d", period.Month)
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// limitArg appends a LIMIT placeholder and returns it
func (w *whereBuilder) limitArg(limit int) string {
	w.args = append(w.args, limit)
	return fmt.Sprintf("LIMIT $%d", len(w.args))
}
