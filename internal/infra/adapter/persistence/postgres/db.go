package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"funding-catalog/internal/domain/entity"
	"funding-catalog/internal/observability/metrics"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the repositories translate.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// DB is the part of *sql.DB the repositories use.
// *sql.DB and circuitbreaker.DBCircuitBreaker both satisfy it.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// storageErr classifies a driver error for op.
// Foreign key violations are the caller's fault and surface as validation
// failures; everything else is a storage failure.
func storageErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation {
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return &entity.ValidationFailedError{Violations: []error{
			&entity.ValidationError{Field: field, Message: "references a missing row"},
		}}
	}
	return entity.NewStorageError(op, err)
}

// constraintFields maps foreign key constraints to the entity field they guard.
var constraintFields = map[string]string{
	"fk_articles_contact_partner": "contactPartner",
	"fk_articles_child_article":   "childArticle",
	"fk_articles_parent_article":  "parentArticle",
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation && pgErr.ConstraintName == constraint
}

// withTx runs fn inside a transaction and commits when fn returns nil.
func withTx(ctx context.Context, db DB, op string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(op, fmt.Errorf("begin: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return storageErr(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// observe records the duration of a repository operation.
func observe(op string, start time.Time) {
	metrics.RecordDBQuery(op, time.Since(start))
}

// nullID maps an unassigned key to SQL NULL.
func nullID[T any](id entity.ID[T]) any {
	if v, ok := id.Value(); ok {
		return v
	}
	return nil
}

// scanID converts a nullable key column.
func scanID[T any](n sql.NullInt64) entity.ID[T] {
	if !n.Valid {
		return entity.ID[T]{}
	}
	return entity.AssignID[T](n.Int64)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
