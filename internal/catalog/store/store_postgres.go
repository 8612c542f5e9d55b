package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"provenance/internal/catalog/models"
	"provenance/internal/platform/postgres"
	"provenance/pkg/domain"
	"provenance/pkg/pagination"
	"provenance/pkg/platform/sentinel"
	txcontext "provenance/pkg/platform/tx"
)

const tagWidth = len(domain.Tag{})

// PostgresStore keeps ordered indexes as dense ordinals assigned under the
// catalog row lock, so a page is a range scan.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateCatalog(ctx context.Context, c *models.Catalog) error {
	_, err := txcontext.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO catalogs (address, creator, display_name, story, url_template, provisioned_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.Address.String(), c.Creator.String(), c.DisplayName, c.Story, c.URLTemplate,
		c.ProvisionedBy.String(), c.CreatedAt)
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert catalog: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindCatalog(ctx context.Context, address domain.Address) (*models.Catalog, error) {
	var (
		c                       models.Catalog
		creator, provisionedBy  string
		seriesCount, assetCount int64
	)
	err := txcontext.QuerierFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT creator, display_name, story, url_template, series_count, asset_count, provisioned_by, created_at
		FROM catalogs WHERE address = $1`, address.String()).
		Scan(&creator, &c.DisplayName, &c.Story, &c.URLTemplate, &seriesCount, &assetCount, &provisionedBy, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find catalog: %w", err)
	}
	c.Address = address
	c.SeriesCount = int(seriesCount)
	c.AssetCount = int(assetCount)
	if c.Creator, err = domain.ParseAddress(creator); err != nil {
		return nil, fmt.Errorf("decode catalog creator: %w", err)
	}
	if c.ProvisionedBy, err = domain.ParseAddress(provisionedBy); err != nil {
		return nil, fmt.Errorf("decode catalog provisioner: %w", err)
	}
	return &c, nil
}

// lockCatalog takes the catalog row lock for the rest of the transaction and
// returns its counters.
func (s *PostgresStore) lockCatalog(ctx context.Context, q txcontext.Querier, address domain.Address) (seriesCount, assetCount int64, err error) {
	err = q.QueryRowContext(ctx,
		`SELECT series_count, asset_count FROM catalogs WHERE address = $1 FOR UPDATE`,
		address.String()).Scan(&seriesCount, &assetCount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("lock catalog: %w", err)
	}
	return seriesCount, assetCount, nil
}

// CreateSeries must run inside a unit of work so the row lock spans every statement.
func (s *PostgresStore) CreateSeries(ctx context.Context, series *models.Series) error {
	q := txcontext.QuerierFrom(ctx, s.db)
	seriesCount, _, err := s.lockCatalog(ctx, q, series.Catalog)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO series (catalog, series_id, ordinal, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		series.Catalog.String(), series.ID[:], seriesCount, series.Description,
		series.CreatedBy.String(), series.CreatedAt, series.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert series: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE catalogs SET series_count = series_count + 1 WHERE address = $1`,
		series.Catalog.String()); err != nil {
		return fmt.Errorf("bump series count: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindSeries(ctx context.Context, catalog domain.Address, id domain.SeriesID) (*models.Series, error) {
	return s.findSeries(ctx, txcontext.QuerierFrom(ctx, s.db), catalog, id, "")
}

func (s *PostgresStore) findSeries(ctx context.Context, q txcontext.Querier, catalog domain.Address, id domain.SeriesID, lock string) (*models.Series, error) {
	var (
		series    models.Series
		createdBy string
	)
	err := q.QueryRowContext(ctx, `
		SELECT description, created_by, created_at, updated_at
		FROM series WHERE catalog = $1 AND series_id = $2`+lock,
		catalog.String(), id[:]).
		Scan(&series.Description, &createdBy, &series.CreatedAt, &series.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find series: %w", err)
	}
	series.Catalog = catalog
	series.ID = id
	if series.CreatedBy, err = domain.ParseAddress(createdBy); err != nil {
		return nil, fmt.Errorf("decode series creator: %w", err)
	}
	return &series, nil
}

func (s *PostgresStore) UpdateSeries(ctx context.Context, catalog domain.Address, id domain.SeriesID, fn func(*models.Series) error) error {
	q := txcontext.QuerierFrom(ctx, s.db)
	series, err := s.findSeries(ctx, q, catalog, id, " FOR UPDATE")
	if err != nil {
		return err
	}
	if err := fn(series); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, `
		UPDATE series SET description = $3, updated_at = $4
		WHERE catalog = $1 AND series_id = $2`,
		catalog.String(), id[:], series.Description, series.UpdatedAt); err != nil {
		return fmt.Errorf("update series: %w", err)
	}
	return nil
}

// ListSeries reads the counter and the window in one statement, so both come
// from the same snapshot.
func (s *PostgresStore) ListSeries(ctx context.Context, catalog domain.Address, offset, pageSize int) (pagination.Page[domain.SeriesID], error) {
	rows, err := txcontext.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT c.series_count, s.series_id
		FROM catalogs c
		LEFT JOIN series s
		  ON s.catalog = c.address AND s.ordinal >= $2 AND s.ordinal < $3
		WHERE c.address = $1
		ORDER BY s.ordinal`,
		catalog.String(), offset, offset+pageSize)
	if err != nil {
		return pagination.Page[domain.SeriesID]{}, fmt.Errorf("list series: %w", err)
	}
	ids, total, err := scanWindow(rows, func(b []byte) domain.SeriesID {
		var id domain.SeriesID
		copy(id[:], b)
		return id
	})
	if err != nil {
		return pagination.Page[domain.SeriesID]{}, err
	}
	return pagination.FromWindow(ids, pageSize, total), nil
}

// CreateAsset assigns the global and per-series ordinals under the catalog row lock.
func (s *PostgresStore) CreateAsset(ctx context.Context, asset *models.Asset) error {
	q := txcontext.QuerierFrom(ctx, s.db)
	_, assetCount, err := s.lockCatalog(ctx, q, asset.Catalog)
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, `
		INSERT INTO series_asset_counts (catalog, series_id, asset_count)
		VALUES ($1, $2, 0)
		ON CONFLICT (catalog, series_id) DO NOTHING`,
		asset.Catalog.String(), asset.SeriesID[:]); err != nil {
		return fmt.Errorf("init series asset count: %w", err)
	}
	var seriesOrdinal int64
	if err := q.QueryRowContext(ctx, `
		SELECT asset_count FROM series_asset_counts
		WHERE catalog = $1 AND series_id = $2`,
		asset.Catalog.String(), asset.SeriesID[:]).Scan(&seriesOrdinal); err != nil {
		return fmt.Errorf("read series asset count: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO assets (catalog, asset_id, ordinal, series_id, series_ordinal, description,
		                    creator, tags, url, document_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		asset.Catalog.String(), asset.ID[:], assetCount, asset.SeriesID[:], seriesOrdinal,
		asset.Description, asset.Creator.String(), encodeTags(asset.Tags), asset.URL,
		asset.DocumentHash[:], asset.CreatedAt, asset.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}

	if _, err := q.ExecContext(ctx, `
		UPDATE series_asset_counts SET asset_count = asset_count + 1
		WHERE catalog = $1 AND series_id = $2`,
		asset.Catalog.String(), asset.SeriesID[:]); err != nil {
		return fmt.Errorf("bump series asset count: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE catalogs SET asset_count = asset_count + 1 WHERE address = $1`,
		asset.Catalog.String()); err != nil {
		return fmt.Errorf("bump asset count: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindAsset(ctx context.Context, catalog domain.Address, id domain.AssetID) (*models.Asset, error) {
	return s.findAsset(ctx, txcontext.QuerierFrom(ctx, s.db), catalog, id, "")
}

func (s *PostgresStore) findAsset(ctx context.Context, q txcontext.Querier, catalog domain.Address, id domain.AssetID, lock string) (*models.Asset, error) {
	var (
		asset                  models.Asset
		seriesID, tags, docHsh []byte
		creator                string
	)
	err := q.QueryRowContext(ctx, `
		SELECT series_id, description, creator, tags, url, document_hash, created_at, updated_at
		FROM assets WHERE catalog = $1 AND asset_id = $2`+lock,
		catalog.String(), id[:]).
		Scan(&seriesID, &asset.Description, &creator, &tags, &asset.URL, &docHsh, &asset.CreatedAt, &asset.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find asset: %w", err)
	}
	asset.Catalog = catalog
	asset.ID = id
	copy(asset.SeriesID[:], seriesID)
	copy(asset.DocumentHash[:], docHsh)
	if asset.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	if asset.Creator, err = domain.ParseAddress(creator); err != nil {
		return nil, fmt.Errorf("decode asset creator: %w", err)
	}
	return &asset, nil
}

func (s *PostgresStore) UpdateAsset(ctx context.Context, catalog domain.Address, id domain.AssetID, fn func(*models.Asset) error) error {
	q := txcontext.QuerierFrom(ctx, s.db)
	asset, err := s.findAsset(ctx, q, catalog, id, " FOR UPDATE")
	if err != nil {
		return err
	}
	if err := fn(asset); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, `
		UPDATE assets SET description = $3, tags = $4, updated_at = $5
		WHERE catalog = $1 AND asset_id = $2`,
		catalog.String(), id[:], asset.Description, encodeTags(asset.Tags), asset.UpdatedAt); err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAssetsBySeries(ctx context.Context, catalog domain.Address, seriesID domain.SeriesID, offset, pageSize int) (pagination.Page[domain.AssetID], error) {
	rows, err := txcontext.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT COALESCE(sc.asset_count, 0), a.asset_id
		FROM catalogs c
		LEFT JOIN series_asset_counts sc
		  ON sc.catalog = c.address AND sc.series_id = $2
		LEFT JOIN assets a
		  ON a.catalog = c.address AND a.series_id = $2
		 AND a.series_ordinal >= $3 AND a.series_ordinal < $4
		WHERE c.address = $1
		ORDER BY a.series_ordinal`,
		catalog.String(), seriesID[:], offset, offset+pageSize)
	if err != nil {
		return pagination.Page[domain.AssetID]{}, fmt.Errorf("list assets by series: %w", err)
	}
	ids, total, err := scanWindow(rows, func(b []byte) domain.AssetID {
		var id domain.AssetID
		copy(id[:], b)
		return id
	})
	if err != nil {
		return pagination.Page[domain.AssetID]{}, err
	}
	return pagination.FromWindow(ids, pageSize, total), nil
}

// scanWindow reads (total, key) rows from a LEFT JOIN. No rows means the
// catalog is missing; a NULL key means the window is empty.
func scanWindow[T any](rows *sql.Rows, decode func([]byte) T) ([]T, int, error) {
	defer rows.Close()
	var (
		out   []T
		total int64
		seen  bool
	)
	for rows.Next() {
		var key []byte
		if err := rows.Scan(&total, &key); err != nil {
			return nil, 0, fmt.Errorf("scan window: %w", err)
		}
		seen = true
		if key != nil {
			out = append(out, decode(key))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate window: %w", err)
	}
	if !seen {
		return nil, 0, sentinel.ErrNotFound
	}
	return out, int(total), nil
}

func encodeTags(tags []domain.Tag) []byte {
	buf := make([]byte, 0, len(tags)*tagWidth)
	for _, t := range tags {
		buf = append(buf, t[:]...)
	}
	return buf
}

func decodeTags(b []byte) ([]domain.Tag, error) {
	if len(b)%tagWidth != 0 {
		return nil, fmt.Errorf("decode tags: %d bytes is not a whole number of slots", len(b))
	}
	tags := make([]domain.Tag, len(b)/tagWidth)
	for i := range tags {
		copy(tags[i][:], b[i*tagWidth:])
	}
	return tags, nil
}
