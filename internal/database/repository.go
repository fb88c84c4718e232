// Package database implements the Postgres store behind the scraping
// pipeline: company resolution, job lookup by external id or URL, and the
// transactional insert-or-update merge of a scrape run's candidates.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tuananh131001/ai-job-search/internal/models"
)

type Repository struct {
	db *pgxpool.Pool
}

// Connect opens a pgx pool against connString and verifies it with a ping.
func Connect(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// FindCompanyByName resolves a company by case-insensitive substring
// match. Returns (nil, nil) when no row matches.
func (r *Repository) FindCompanyByName(ctx context.Context, name string) (*models.Company, error) {
	return findCompanyByName(ctx, r.db, name)
}

// CreateCompany inserts a company and returns it with its id populated.
func (r *Repository) CreateCompany(ctx context.Context, name, industry string) (*models.Company, error) {
	return createCompany(ctx, r.db, name, industry)
}

// FindJobByExternalIDOrURL looks a job up by either identity key.
// Returns (nil, nil) when no row matches.
func (r *Repository) FindJobByExternalIDOrURL(ctx context.Context, externalID, url string) (*models.Job, error) {
	return findJobByExternalIDOrURL(ctx, r.db, externalID, url)
}

// rowQuerier is the subset of pgx shared by the pool and transactions, so
// the same statements serve direct reads and the merge's savepoint scopes.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const companyColumns = "id, name, website, industry, created_at, updated_at"

func findCompanyByName(ctx context.Context, q rowQuerier, name string) (*models.Company, error) {
	var c models.Company
	err := q.QueryRow(ctx,
		"SELECT "+companyColumns+" FROM companies WHERE name ILIKE '%' || $1 || '%' LIMIT 1",
		name,
	).Scan(&c.ID, &c.Name, &c.Website, &c.Industry, &c.CreatedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find company %q: %w", name, err)
	}
	return &c, nil
}

func createCompany(ctx context.Context, q rowQuerier, name, industry string) (*models.Company, error) {
	var c models.Company
	c.Name = name
	err := q.QueryRow(ctx,
		`INSERT INTO companies (name, industry) VALUES ($1, NULLIF($2, ''))
		 RETURNING `+companyColumns,
		name, industry,
	).Scan(&c.ID, &c.Name, &c.Website, &c.Industry, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create company %q: %w", name, err)
	}
	return &c, nil
}

const jobColumns = `id, external_id, title, company_id, description, location, COALESCE(url, ''), source,
	job_type, experience_level, salary_min, salary_max, salary_currency,
	posted_date, is_active, created_at, updated_at`

// findJobByExternalIDOrURL matches by either identity key. Candidates
// without a URL are looked up by external id alone so that url-less rows
// never alias each other.
func findJobByExternalIDOrURL(ctx context.Context, q rowQuerier, externalID, url string) (*models.Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs WHERE external_id = $1 OR url = $2 LIMIT 1"
	args := []any{externalID, url}
	if url == "" {
		query = "SELECT " + jobColumns + " FROM jobs WHERE external_id = $1 LIMIT 1"
		args = []any{externalID}
	}

	var j models.Job
	err := q.QueryRow(ctx, query, args...).Scan(
		&j.ID, &j.ExternalID, &j.Title, &j.CompanyID, &j.Description, &j.Location,
		&j.URL, &j.Source, &j.JobType, &j.ExperienceLevel, &j.SalaryMin, &j.SalaryMax,
		&j.SalaryCurrency, &j.PostedDate, &j.IsActive, &j.CreatedAt, &j.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find job %q: %w", externalID, err)
	}
	return &j, nil
}
