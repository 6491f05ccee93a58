// Package database provides the Postgres-backed store repository.
package database

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coumap/store-crawler/internal/metrics"
	"github.com/coumap/store-crawler/internal/region"
	"github.com/coumap/store-crawler/internal/store"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for store rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// StoreRepo persists deduplicated store entities in Postgres.
type StoreRepo struct {
	pool  pgxPool
	table string
	now   func() time.Time
}

// NewStoreRepo connects a pool from the config and pings it so a dead
// database fails the run during setup, not mid-walk.
func NewStoreRepo(ctx context.Context, cfg Config) (*StoreRepo, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "stores"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &StoreRepo{pool: pool, table: table, now: func() time.Time { return time.Now().UTC() }}, nil
}

// NewStoreRepoWithPool constructs a repo from an existing pool (primarily
// for testing with pgxmock).
func NewStoreRepoWithPool(pool pgxPool, table string) (*StoreRepo, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "stores"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &StoreRepo{pool: pool, table: table, now: func() time.Time { return time.Now().UTC() }}, nil
}

// SetNow overrides the clock, for deterministic last_seen_at in tests.
func (r *StoreRepo) SetNow(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// Close releases the underlying pool resources.
func (r *StoreRepo) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

// EnsureSchema creates the store table when it does not exist yet.
func (r *StoreRepo) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	identity_key TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	address      TEXT NOT NULL,
	category     TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	province     TEXT NOT NULL DEFAULT '',
	district     TEXT NOT NULL DEFAULT '',
	dong         TEXT NOT NULL DEFAULT '',
	latitude     DOUBLE PRECISION,
	longitude    DOUBLE PRECISION,
	last_seen_at TIMESTAMPTZ NOT NULL
)`, r.table)
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Upsert inserts or refreshes one store row keyed on its identity key.
// Mutable fields are overwritten on every crawl, while the coordinate
// columns COALESCE against the existing row so a failed geocode on a
// re-crawl never erases a previously known location.
func (r *StoreRepo) Upsert(ctx context.Context, rec store.RawRecord, coord *store.Coordinate) (store.Entity, error) {
	if !rec.Valid() {
		return store.Entity{}, fmt.Errorf("upsert: record needs a name and address")
	}

	key := store.IdentityKey(rec.Name, rec.RawAddress)
	seenAt := r.now()

	var lat, lng *float64
	if coord != nil {
		lat, lng = &coord.Latitude, &coord.Longitude
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	identity_key, name, address, category, phone,
	province, district, dong, latitude, longitude, last_seen_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (identity_key) DO UPDATE SET
	name         = EXCLUDED.name,
	address      = EXCLUDED.address,
	category     = EXCLUDED.category,
	phone        = EXCLUDED.phone,
	province     = EXCLUDED.province,
	district     = EXCLUDED.district,
	dong         = EXCLUDED.dong,
	latitude     = COALESCE(EXCLUDED.latitude, %[1]s.latitude),
	longitude    = COALESCE(EXCLUDED.longitude, %[1]s.longitude),
	last_seen_at = EXCLUDED.last_seen_at
RETURNING latitude, longitude, (xmax = 0) AS inserted`, r.table)

	var (
		storedLat, storedLng *float64
		inserted             bool
	)
	err := r.pool.QueryRow(ctx, query,
		key,
		rec.Name,
		rec.RawAddress,
		rec.Category,
		rec.Phone,
		rec.Region.Province,
		rec.Region.District,
		rec.Region.Dong,
		lat,
		lng,
		seenAt,
	).Scan(&storedLat, &storedLng, &inserted)
	if err != nil {
		return store.Entity{}, fmt.Errorf("upsert store %q: %w", rec.Name, err)
	}

	if inserted {
		metrics.ObserveUpsert("insert")
	} else {
		metrics.ObserveUpsert("update")
	}

	entity := store.Entity{
		IdentityKey: key,
		Name:        rec.Name,
		Address:     rec.RawAddress,
		Category:    rec.Category,
		Phone:       rec.Phone,
		Region:      rec.Region,
		LastSeenAt:  seenAt,
	}
	if storedLat != nil && storedLng != nil {
		entity.Coordinate = &store.Coordinate{Latitude: *storedLat, Longitude: *storedLng}
	}
	return entity, nil
}

// CountStores returns the total row count and the count of rows that carry
// coordinates, in one aggregate read.
func (r *StoreRepo) CountStores(ctx context.Context) (total, withCoords int64, err error) {
	query := fmt.Sprintf(`SELECT COUNT(*), COUNT(latitude) FROM %s`, r.table)
	if err := r.pool.QueryRow(ctx, query).Scan(&total, &withCoords); err != nil {
		return 0, 0, fmt.Errorf("count stores: %w", err)
	}
	return total, withCoords, nil
}

// Statistics computes the run statistics from the current persisted set.
func (r *StoreRepo) Statistics(ctx context.Context) (store.RunStatistics, error) {
	total, withCoords, err := r.CountStores(ctx)
	if err != nil {
		return store.RunStatistics{}, err
	}
	return store.NewRunStatistics(total, withCoords), nil
}

// Snapshot reads the full persisted store set, ordered for reproducible
// exports.
func (r *StoreRepo) Snapshot(ctx context.Context) ([]store.Entity, error) {
	query := fmt.Sprintf(`
SELECT identity_key, name, address, category, phone,
	province, district, dong, latitude, longitude, last_seen_at
FROM %s
ORDER BY province, district, dong, name`, r.table)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("snapshot stores: %w", err)
	}
	defer rows.Close()

	var out []store.Entity
	for rows.Next() {
		var (
			e        store.Entity
			reg      region.Descriptor
			lat, lng *float64
		)
		if err := rows.Scan(
			&e.IdentityKey, &e.Name, &e.Address, &e.Category, &e.Phone,
			&reg.Province, &reg.District, &reg.Dong, &lat, &lng, &e.LastSeenAt,
		); err != nil {
			return nil, fmt.Errorf("scan store row: %w", err)
		}
		e.Region = reg
		if lat != nil && lng != nil {
			e.Coordinate = &store.Coordinate{Latitude: *lat, Longitude: *lng}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate store rows: %w", err)
	}
	return out, nil
}
