package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"provenance/internal/access/models"
	"provenance/pkg/domain"
	txcontext "provenance/pkg/platform/tx"
)

// PostgresStore persists grants in role_grants.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Grant(ctx context.Context, g models.Grant) (bool, error) {
	query := `
		INSERT INTO role_grants (scope, role, account, granted_by, granted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (scope, role, account) DO NOTHING
	`
	res, err := txcontext.QuerierFrom(ctx, s.db).ExecContext(ctx, query,
		string(g.Scope), string(g.Role), g.Account.String(), g.GrantedBy.String(), g.GrantedAt)
	if err != nil {
		return false, fmt.Errorf("insert role grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert role grant: %w", err)
	}
	return n == 1, nil
}

func (s *PostgresStore) Revoke(ctx context.Context, scope models.Scope, role models.Role, account domain.Address) (bool, error) {
	res, err := txcontext.QuerierFrom(ctx, s.db).ExecContext(ctx,
		`DELETE FROM role_grants WHERE scope = $1 AND role = $2 AND account = $3`,
		string(scope), string(role), account.String())
	if err != nil {
		return false, fmt.Errorf("delete role grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete role grant: %w", err)
	}
	return n == 1, nil
}

func (s *PostgresStore) Has(ctx context.Context, scope models.Scope, role models.Role, account domain.Address) (bool, error) {
	var one int
	err := txcontext.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT 1 FROM role_grants WHERE scope = $1 AND role = $2 AND account = $3`,
		string(scope), string(role), account.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find role grant: %w", err)
	}
	return true, nil
}
