package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-job-acquirer/internal/browser"
	"go-job-acquirer/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	source      TEXT NOT NULL,
	external_id TEXT NOT NULL,
	title       TEXT NOT NULL,
	company     TEXT NOT NULL,
	url         TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (source, external_id)
);

CREATE TABLE IF NOT EXISTS applications (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	job_id      UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	run_id      TEXT NOT NULL,
	status      TEXT NOT NULL,
	match_score INT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (job_id, run_id)
);`

// Repository records qualified jobs and their per-run application state.
type Repository struct {
	db     *pgxpool.Pool
	runID  string
	logger *log.Logger
}

func ConnectDB(ctx context.Context, connString, runID string, logger *log.Logger) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// PgBouncer in transaction mode does not support prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool, runID: runID, logger: logger.WithPrefix("database")}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ---------------- JOB OPERATIONS ----------------

// SaveJob inserts a job or refreshes title and company of an existing one
// (based on source + external_id).
func (r *Repository) SaveJob(ctx context.Context, job *models.JobRecord) (*models.JobRecord, error) {
	query := `
		INSERT INTO jobs (source, external_id, title, company, url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source, external_id)
		DO UPDATE SET title = EXCLUDED.title, company = EXCLUDED.company, url = EXCLUDED.url
		RETURNING id, source, external_id, title, company, url, created_at`

	err := r.db.QueryRow(ctx, query, job.Source, job.ExternalID, job.Title, job.Company, job.URL).
		Scan(&job.ID, &job.Source, &job.ExternalID, &job.Title, &job.Company, &job.URL, &job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}
	return job, nil
}

func (r *Repository) GetJobByExternalID(ctx context.Context, source, externalID string) (*models.JobRecord, error) {
	var job models.JobRecord
	query := `SELECT id, source, external_id, title, company, url, created_at FROM jobs WHERE source = $1 AND external_id = $2`
	err := r.db.QueryRow(ctx, query, source, externalID).
		Scan(&job.ID, &job.Source, &job.ExternalID, &job.Title, &job.Company, &job.URL, &job.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ---------------- APPLICATION OPERATIONS ----------------

// UpsertApplication records the state of a job within one run.
func (r *Repository) UpsertApplication(ctx context.Context, app *models.Application) (*models.Application, error) {
	query := `
		INSERT INTO applications (job_id, run_id, status, match_score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (job_id, run_id)
		DO UPDATE SET status = EXCLUDED.status, match_score = EXCLUDED.match_score, updated_at = now()
		RETURNING id, job_id, run_id, status, match_score, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, app.JobID, app.RunID, app.Status, app.MatchScore).
		Scan(&app.ID, &app.JobID, &app.RunID, &app.Status, &app.MatchScore, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert application: %w", err)
	}
	return app, nil
}

// Handoff stores every qualified job of a batch with its score.
func (r *Repository) Handoff(ctx context.Context, sess *browser.Session, jobs []models.ScoredJob) error {
	source := SourceOf(sess.ListingURL)
	for _, j := range jobs {
		rec, err := r.SaveJob(ctx, &models.JobRecord{
			Source:     source,
			ExternalID: j.ID,
			Title:      j.Title,
			Company:    j.Company,
			URL:        j.Link,
		})
		if err != nil {
			return err
		}
		if _, err := r.UpsertApplication(ctx, &models.Application{
			JobID:      rec.ID,
			RunID:      r.runID,
			Status:     models.StatusQualified,
			MatchScore: j.Score,
		}); err != nil {
			return err
		}
	}
	r.logger.Debug("💾 Recorded qualified jobs", "session", sess.Index, "jobs", len(jobs))
	return nil
}

// SourceOf names a job board by the host of its listing URL.
func SourceOf(listingURL string) string {
	u, err := url.Parse(listingURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Hostname()
}
