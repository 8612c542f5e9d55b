package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"provenance/internal/factory/models"
	"provenance/internal/platform/postgres"
	"provenance/pkg/domain"
	"provenance/pkg/pagination"
	"provenance/pkg/platform/sentinel"
	txcontext "provenance/pkg/platform/tx"
)

// appendLockKey serializes ordinal assignment across connections.
const appendLockKey int64 = 0x666163746f7279

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append takes a transaction-scoped advisory lock and writes the entry at the
// next ordinal. Outside an ambient transaction it opens its own.
func (s *PostgresStore) Append(ctx context.Context, e *models.Entry) error {
	if _, ok := txcontext.From(ctx); ok {
		return s.append(ctx, txcontext.QuerierFrom(ctx, s.db), e)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := s.append(ctx, tx, e); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

func (s *PostgresStore) append(ctx context.Context, q txcontext.Querier, e *models.Entry) error {
	if _, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, appendLockKey); err != nil {
		return fmt.Errorf("lock factory index: %w", err)
	}
	var ordinal int64
	if err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(ordinal) + 1, 0) FROM factory_index`).Scan(&ordinal); err != nil {
		return fmt.Errorf("next factory ordinal: %w", err)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO factory_index (ordinal, creator, catalog, invoker, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		ordinal, e.Creator.String(), e.Catalog.String(), e.Invoker.String(), e.CreatedAt)
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert factory entry: %w", err)
	}
	e.Ordinal = int(ordinal)
	return nil
}

func (s *PostgresStore) FindByCreator(ctx context.Context, creator domain.Address) (*models.Entry, error) {
	var (
		ordinal          int64
		catalog, invoker string
		createdAt        time.Time
	)
	err := txcontext.QuerierFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT ordinal, catalog, invoker, created_at
		FROM factory_index WHERE creator = $1`, creator.String()).
		Scan(&ordinal, &catalog, &invoker, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find factory entry: %w", err)
	}
	return decodeEntry(ordinal, creator.String(), catalog, invoker, createdAt)
}

// List reads the total and the window in one statement.
func (s *PostgresStore) List(ctx context.Context, offset, pageSize int) (pagination.Page[models.Entry], error) {
	rows, err := txcontext.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT t.total, f.ordinal, f.creator, f.catalog, f.invoker, f.created_at
		FROM (SELECT COALESCE(MAX(ordinal) + 1, 0) AS total FROM factory_index) t
		LEFT JOIN factory_index f ON f.ordinal >= $1 AND f.ordinal < $2
		ORDER BY f.ordinal`,
		offset, offset+pageSize)
	if err != nil {
		return pagination.Page[models.Entry]{}, fmt.Errorf("list factory index: %w", err)
	}
	defer rows.Close()

	var (
		entries []models.Entry
		total   int64
	)
	for rows.Next() {
		var (
			ordinal                   sql.NullInt64
			creator, catalog, invoker sql.NullString
			createdAt                 sql.NullTime
		)
		if err := rows.Scan(&total, &ordinal, &creator, &catalog, &invoker, &createdAt); err != nil {
			return pagination.Page[models.Entry]{}, fmt.Errorf("scan factory entry: %w", err)
		}
		if !ordinal.Valid {
			continue
		}
		e, err := decodeEntry(ordinal.Int64, creator.String, catalog.String, invoker.String, createdAt.Time)
		if err != nil {
			return pagination.Page[models.Entry]{}, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return pagination.Page[models.Entry]{}, fmt.Errorf("iterate factory index: %w", err)
	}
	return pagination.FromWindow(entries, pageSize, int(total)), nil
}

func decodeEntry(ordinal int64, creator, catalog, invoker string, createdAt time.Time) (*models.Entry, error) {
	e := &models.Entry{Ordinal: int(ordinal), CreatedAt: createdAt}
	var err error
	if e.Creator, err = domain.ParseAddress(creator); err != nil {
		return nil, fmt.Errorf("decode creator: %w", err)
	}
	if e.Catalog, err = domain.ParseAddress(catalog); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if e.Invoker, err = domain.ParseAddress(invoker); err != nil {
		return nil, fmt.Errorf("decode invoker: %w", err)
	}
	return e, nil
}
