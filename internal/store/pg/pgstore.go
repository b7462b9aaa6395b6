package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"estatehub.app/internal/config"
	"estatehub.app/internal/estate"
	"estatehub.app/internal/report"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
	pgErrCheckViolation      = "23514"
)

// Store persists the estate domain in PostgreSQL.
type Store struct {
	db *sql.DB
}

var (
	_ estate.Store  = (*Store)(nil)
	_ report.Source = (*Store)(nil)
)

// Open returns a pooled handle using the pgx stdlib driver.
func Open(cfg config.DBConfig) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("pg: dsn is required")
	}
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	maxOpen, maxIdle, lifetime := cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime
	if maxOpen <= 0 {
		maxOpen = 50
	}
	if maxIdle <= 0 {
		maxIdle = 25
	}
	if lifetime <= 0 {
		lifetime = 15 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) DB() *sql.DB { return s.db }

type rowScanner interface {
	Scan(dest ...any) error
}

// where accumulates filter clauses with positional arguments. A "?" in a
// clause is replaced by the next placeholder.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.Replace(clause, "?", fmt.Sprintf("$%d", len(w.args)), 1))
}

func (w *where) raw(clause string) { w.clauses = append(w.clauses, clause) }

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " where " + strings.Join(w.clauses, " and ")
}

// listPage runs a count and a windowed select sharing from and w.
func listPage[T any](ctx context.Context, db *sql.DB, columns, from string, w *where, order string, p estate.Page, scan func(rowScanner) (T, error)) ([]T, int, error) {
	var total int
	if err := db.QueryRowContext(ctx, "select count(*) "+from+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	args := append(append([]any{}, w.args...), p.Limit, p.Offset())
	q := fmt.Sprintf("select %s %s%s order by %s limit $%d offset $%d",
		columns, from, w.String(), order, len(args)-1, len(args))
	items, err := queryAll(ctx, db, q, args, scan)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func queryAll[T any](ctx context.Context, db *sql.DB, q string, args []any, scan func(rowScanner) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}

// execOne runs an update or delete expected to touch exactly one row.
func execOne(ctx context.Context, ex interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, q string, args ...any) error {
	res, err := ex.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return estate.ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return estate.ErrNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// integrityError maps constraint violations onto estate sentinels.
func integrityError(err error) error {
	pgErr, ok := maybePgError(err)
	if !ok {
		return fmt.Errorf("db error: %w", err)
	}
	switch pgErr.Code {
	case pgErrUniqueViolation:
		if pgErr.ConstraintName == "payments_receipt_number_key" {
			return estate.ErrReceiptTaken
		}
		return estate.ErrConflict
	case pgErrForeignKeyViolation, pgErrCheckViolation:
		return fmt.Errorf("%w: %s", estate.ErrInvalidInput, pgErr.Message)
	}
	return fmt.Errorf("db error: %w", err)
}

func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func direction(order string) string {
	if strings.EqualFold(order, "asc") {
		return "asc"
	}
	return "desc"
}
