// Package postgres persists job records and run summaries in Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobsweep/linkedin-crawler/internal/crawler"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// summaryTable holds one row per finished crawl run.
const summaryTable = "crawl_runs"

// Config controls the Postgres connection pool used for job rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// JobStore writes job records into Postgres with upsert-on-id semantics, so
// a job rediscovered by a later run refreshes in place.
type JobStore struct {
	pool  execCloser
	runID string
	table string
}

// NewJobStore creates a Postgres-backed JobStore for one run.
func NewJobStore(ctx context.Context, runID string, cfg Config) (*JobStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "job_records"
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
	return &JobStore{pool: pool, runID: runID, table: table}, nil
}

// NewJobStoreWithPool constructs a store from an existing pool (primarily
// for testing).
func NewJobStoreWithPool(pool execCloser, runID, table string) (*JobStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "job_records"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &JobStore{pool: pool, runID: runID, table: table}, nil
}

// Emit upserts one job record. The full record, extension fields included,
// rides in the payload column; the named columns cover the common queries.
func (s *JobStore) Emit(ctx context.Context, record crawler.JobRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("job store is not configured")
	}
	if record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	run_id,
	title,
	company_name,
	location,
	link,
	employment_type,
	seniority_level,
	posted_at,
	scraped_at,
	payload
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
ON CONFLICT (id) DO UPDATE SET
	run_id = EXCLUDED.run_id,
	title = EXCLUDED.title,
	company_name = EXCLUDED.company_name,
	location = EXCLUDED.location,
	link = EXCLUDED.link,
	employment_type = EXCLUDED.employment_type,
	seniority_level = EXCLUDED.seniority_level,
	posted_at = EXCLUDED.posted_at,
	scraped_at = EXCLUDED.scraped_at,
	payload = EXCLUDED.payload`, s.table)

	args := []any{
		record.ID,
		s.runID,
		record.Title,
		record.CompanyName,
		record.Location,
		record.Link,
		record.EmploymentType,
		record.SeniorityLevel,
		record.PostedAt,
		record.ScrapedAt,
		payload,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job record: %w", err)
	}
	return nil
}

// StoreSummary inserts the run-summary row.
func (s *JobStore) StoreSummary(ctx context.Context, summary crawler.CrawlSummary) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("job store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	page_count,
	job_count,
	stop_reason,
	started_at,
	finished_at
) VALUES (
	$1,$2,$3,$4,$5,$6
)`, summaryTable)

	args := []any{
		summary.RunID,
		summary.PageCount,
		summary.JobCount,
		string(summary.StopReason),
		summary.StartedAt,
		summary.FinishedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run summary: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *JobStore) Close(context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
