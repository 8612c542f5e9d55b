package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"provenance/internal/names/models"
	"provenance/internal/platform/postgres"
	"provenance/pkg/domain"
	"provenance/pkg/platform/sentinel"
	txcontext "provenance/pkg/platform/tx"
)

const foldedNameConstraint = "creator_names_folded_name_key"

// PostgresStore persists bindings in creator_names and creator_catalog_links.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByAddress(ctx context.Context, address domain.Address) (*models.NameRecord, error) {
	return s.findOne(ctx, `
		SELECT address, display_name, folded_name, created_at
		FROM creator_names WHERE address = $1`, address.String())
}

func (s *PostgresStore) FindByFoldedName(ctx context.Context, folded string) (*models.NameRecord, error) {
	return s.findOne(ctx, `
		SELECT address, display_name, folded_name, created_at
		FROM creator_names WHERE folded_name = $1`, folded)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.NameRecord, error) {
	var (
		rec  models.NameRecord
		addr string
	)
	err := txcontext.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, arg).
		Scan(&addr, &rec.Name, &rec.FoldedName, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find name record: %w", err)
	}
	if rec.Address, err = domain.ParseAddress(addr); err != nil {
		return nil, fmt.Errorf("decode name record address: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) FindNames(ctx context.Context, addresses []domain.Address) (map[domain.Address]string, error) {
	out := make(map[domain.Address]string, len(addresses))
	if len(addresses) == 0 {
		return out, nil
	}
	keys := make([]string, len(addresses))
	for i, a := range addresses {
		keys[i] = a.String()
	}

	rows, err := txcontext.QuerierFrom(ctx, s.db).QueryContext(ctx,
		`SELECT address, display_name FROM creator_names WHERE address = ANY($1::text[])`,
		pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("find names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var addr, name string
		if err := rows.Scan(&addr, &name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		a, err := domain.ParseAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("decode name address: %w", err)
		}
		out[a] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate names: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, rec *models.NameRecord) error {
	_, err := txcontext.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO creator_names (address, display_name, folded_name, created_at)
		VALUES ($1, $2, $3, $4)`,
		rec.Address.String(), rec.Name, rec.FoldedName, rec.CreatedAt)
	if postgres.IsUniqueViolation(err) {
		if postgres.ConstraintName(err) == foldedNameConstraint {
			return ErrNameTaken
		}
		return ErrAddressBound
	}
	if err != nil {
		return fmt.Errorf("insert name record: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetCatalog(ctx context.Context, link *models.CatalogLink) error {
	_, err := txcontext.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO creator_catalog_links (creator, catalog, created_at)
		VALUES ($1, $2, $3)`,
		link.Creator.String(), link.Catalog.String(), link.CreatedAt)
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert catalog link: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindCatalog(ctx context.Context, creator domain.Address) (*models.CatalogLink, error) {
	var (
		link       models.CatalogLink
		catalogHex string
	)
	err := txcontext.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT catalog, created_at FROM creator_catalog_links WHERE creator = $1`,
		creator.String()).Scan(&catalogHex, &link.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find catalog link: %w", err)
	}
	if link.Catalog, err = domain.ParseAddress(catalogHex); err != nil {
		return nil, fmt.Errorf("decode catalog address: %w", err)
	}
	link.Creator = creator
	return &link, nil
}
