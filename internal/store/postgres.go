// Package store implements the durable cache tier on PostgreSQL: one row per
// (city, query type, source) triple, upserted on every successful live fetch.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dkotenko/weather-aggregation-api/internal/weather"
)

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres implements weather.Store on PostgreSQL.
type Postgres struct {
	db DB
}

var _ weather.Store = (*Postgres)(nil)

func New(db DB) *Postgres {
	return &Postgres{db: db}
}

// SaveSource upserts a provider payload; a conflicting row for the same
// (city, query type, source) gets its data replaced and updated_at advanced
// while created_at stays put.
func (p *Postgres) SaveSource(ctx context.Context, city string, queryType weather.QueryType, source string, data json.RawMessage) error {
	const query = `INSERT INTO weather_data (id, city, query_type, source, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (city, query_type, source)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()`
	_, err := p.db.Exec(ctx, query, uuid.New(), city, string(queryType), source, data)
	return err
}

// LatestRecord returns the freshest row for (city, queryType) across all
// sources. Most recent updated_at wins; created_at breaks ties so repeated
// reads are deterministic when several provider rows share a timestamp.
func (p *Postgres) LatestRecord(ctx context.Context, city string, queryType weather.QueryType) (*weather.Record, error) {
	const query = `SELECT source, data, created_at, updated_at
		FROM weather_data
		WHERE city = $1 AND query_type = $2
		ORDER BY updated_at DESC, created_at DESC
		LIMIT 1`

	row := p.db.QueryRow(ctx, query, city, string(queryType))

	var rec weather.Record
	if err := row.Scan(&rec.Source, &rec.Data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, weather.ErrNoRecord
		}
		return nil, err
	}
	return &rec, nil
}

// Stats reports aggregate counts over the whole table.
func (p *Postgres) Stats(ctx context.Context) (weather.Stats, error) {
	const query = `SELECT
		COUNT(*),
		COUNT(DISTINCT city),
		COUNT(DISTINCT source),
		MAX(created_at)
		FROM weather_data`

	row := p.db.QueryRow(ctx, query)

	var stats weather.Stats
	if err := row.Scan(&stats.TotalRecords, &stats.UniqueCities, &stats.UniqueSources, &stats.LastUpdate); err != nil {
		return weather.Stats{}, err
	}
	return stats, nil
}

// DeleteOlderThan removes rows created before cutoff, ignoring updated_at:
// even a frequently refreshed row eventually cycles out and gets recreated.
func (p *Postgres) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM weather_data WHERE created_at < $1`
	tag, err := p.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
