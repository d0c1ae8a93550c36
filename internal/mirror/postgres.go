package mirror

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/hiddenjobs/internal/model"
	"github.com/amishk599/hiddenjobs/internal/publish"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS job_postings (
	id           TEXT PRIMARY KEY,
	company      TEXT NOT NULL,
	title        TEXT NOT NULL,
	location     TEXT,
	tech_stack   TEXT[] NOT NULL DEFAULT '{}',
	url          TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL,
	posted_date  TIMESTAMPTZ,
	scraped_at   TIMESTAMPTZ NOT NULL,
	hidden_score INTEGER NOT NULL,
	last_seen    TIMESTAMPTZ NOT NULL
)`

const upsertSQL = `INSERT INTO job_postings
	(id, company, title, location, tech_stack, url, source, posted_date, scraped_at, hidden_score, last_seen)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
	company = EXCLUDED.company,
	title = EXCLUDED.title,
	location = EXCLUDED.location,
	tech_stack = EXCLUDED.tech_stack,
	url = EXCLUDED.url,
	posted_date = EXCLUDED.posted_date,
	scraped_at = EXCLUDED.scraped_at,
	hidden_score = EXCLUDED.hidden_score,
	last_seen = EXCLUDED.last_seen`

// PostgresMirror upserts every published posting into job_postings.
// Rows for postings that disappear are kept; last_seen tells them apart.
type PostgresMirror struct {
	pool *pgxpool.Pool
}

// NewPostgresMirror connects, verifies the pool and creates the table if needed.
func NewPostgresMirror(ctx context.Context, databaseURL string) (*PostgresMirror, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create job_postings: %w", err)
	}

	return &PostgresMirror{pool: pool}, nil
}

// Name identifies the mirror in logs.
func (m *PostgresMirror) Name() string { return "postgres" }

// Store upserts all jobs of the artifact in a single batch.
func (m *PostgresMirror) Store(ctx context.Context, a publish.Artifact) error {
	batch := upsertBatch(a)
	if batch.Len() == 0 {
		return nil
	}

	br := m.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, j := range a.Jobs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert job %s: %w", j.ID, err)
		}
	}
	return nil
}

// Close releases the pool.
func (m *PostgresMirror) Close() error {
	m.pool.Close()
	return nil
}

func upsertBatch(a publish.Artifact) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, j := range a.Jobs {
		batch.Queue(upsertSQL, upsertArgs(j, a)...)
	}
	return batch
}

func upsertArgs(j model.JobPosting, a publish.Artifact) []any {
	tech := j.TechStack
	if tech == nil {
		tech = []string{}
	}
	return []any{
		j.ID, j.Company, j.Title, j.Location, tech, j.URL, j.Source,
		j.PostedDate, j.ScrapedAt, j.HiddenScore, a.LastUpdated,
	}
}
