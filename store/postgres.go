package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/use-agent/harvest/models"
)

//go:embed schema.sql
var schemaSQL string

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Postgres implements Store on a Postgres scraped_data table.
type Postgres struct {
	pool Pool
}

// NewPostgres opens a connection pool and verifies it with a ping.
func NewPostgres(ctx context.Context, dsn string, maxConns int32) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, unavailable("parse connection string", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, unavailable("open pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable("ping", err)
	}
	return &Postgres{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the scraped_data table and its indexes if missing.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return unavailable("migrate", err)
	}
	return nil
}

// Close releases the pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

// Read returns raw_data for key as text.
func (s *Postgres) Read(ctx context.Context, key string) (string, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT raw_data FROM scraped_data WHERE unique_name = $1 LIMIT 1`,
		key,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("read "+key, err)
	}
	return decodeContent(raw), nil
}

// Write upserts url and raw_data for key. Content already stored under
// key is never replaced; only a missing or empty raw_data is filled in.
func (s *Postgres) Write(ctx context.Context, key, url, content string) error {
	encoded, err := json.Marshal(content)
	if err != nil {
		return eris.Wrap(err, "store: encode content")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO scraped_data (unique_name, url, raw_data) VALUES ($1, $2, $3)
		 ON CONFLICT (unique_name) DO UPDATE SET url = EXCLUDED.url, raw_data = EXCLUDED.raw_data
		 WHERE scraped_data.raw_data IS NULL OR scraped_data.raw_data = '""'::jsonb`,
		key, url, json.RawMessage(encoded),
	)
	if err != nil {
		return unavailable("write "+key, err)
	}
	return nil
}

// UpdateFields sets the non-nil patch columns on the row for key.
func (s *Postgres) UpdateFields(ctx context.Context, key string, patch Patch) error {
	if patch.Empty() {
		return nil
	}

	sets := make([]string, 0, 2)
	args := []any{key}
	if patch.StructuredFields != nil {
		args = append(args, patch.StructuredFields)
		sets = append(sets, fmt.Sprintf("formatted_data = $%d", len(args)))
	}
	if patch.PaginationResult != nil {
		args = append(args, patch.PaginationResult)
		sets = append(sets, fmt.Sprintf("pagination_data = $%d", len(args)))
	}

	sql := `UPDATE scraped_data SET ` + strings.Join(sets, ", ") + ` WHERE unique_name = $1`
	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return unavailable("update "+key, err)
	}
	return nil
}

// Get loads the full record for key.
func (s *Postgres) Get(ctx context.Context, key string) (*models.Record, error) {
	var (
		rec                models.Record
		url                *string
		raw, fields, pages []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT unique_name, url, raw_data, formatted_data, pagination_data, created_at
		 FROM scraped_data WHERE unique_name = $1 LIMIT 1`,
		key,
	).Scan(&rec.Key, &url, &raw, &fields, &pages, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewScrapeError(models.ErrCodeRecordNotFound, "no record for key "+key, nil)
	}
	if err != nil {
		return nil, unavailable("get "+key, err)
	}

	if url != nil {
		rec.SourceURL = *url
	}
	rec.RawContent = decodeContent(raw)
	if len(fields) > 0 {
		rec.StructuredFields = json.RawMessage(fields)
	}
	if len(pages) > 0 {
		rec.PaginationResult = json.RawMessage(pages)
	}
	return &rec, nil
}

// decodeContent turns a raw_data JSON value into text. Content is written
// as a JSON string; rows written by other tools may hold any JSON value,
// which is returned verbatim.
func decodeContent(raw []byte) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func unavailable(op string, err error) error {
	return models.NewScrapeError(
		models.ErrCodeStoreUnavailable,
		"content store unavailable",
		eris.Wrap(err, "store: "+op),
	)
}
