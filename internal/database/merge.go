package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tuananh131001/ai-job-search/internal/scraper"
)

// defaultIndustry is attached to companies first seen through scraping;
// the pipeline only searches marketing roles.
const defaultIndustry = "Marketing & Advertising"

// execQuerier is the transaction-scope surface mergeJob needs; pgx.Tx
// satisfies it.
type execQuerier interface {
	rowQuerier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SaveJobs merges scraped candidates into the jobs table inside a single
// transaction. Each candidate runs in its own savepoint: a bad record is
// rolled back and logged without poisoning the rest of the batch. Rows are
// matched by external_id or url and updated in place; unseen listings are
// inserted and reported back for notification. The returned count reflects
// rows made durable, so a failed final commit reports zero and no new
// listings.
func (r *Repository) SaveJobs(ctx context.Context, jobs []scraper.JobData) (int, []scraper.JobData, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("begin save transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	saved := 0
	var newJobs []scraper.JobData
	for _, job := range jobs {
		// tx.Begin on an open transaction opens a savepoint scope
		sp, err := tx.Begin(ctx)
		if err != nil {
			return 0, nil, fmt.Errorf("begin savepoint: %w", err)
		}

		inserted, err := mergeJob(ctx, sp, job)
		if err != nil {
			log.Printf("[database] skipping %s: %v", job.ExternalID, err)
			if rbErr := sp.Rollback(ctx); rbErr != nil {
				return 0, nil, fmt.Errorf("rollback savepoint: %w", rbErr)
			}
			continue
		}

		if err := sp.Commit(ctx); err != nil {
			return 0, nil, fmt.Errorf("release savepoint: %w", err)
		}
		saved++
		if inserted {
			newJobs = append(newJobs, job)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, nil, fmt.Errorf("commit save transaction: %w", err)
	}

	log.Printf("[database] saved %d of %d jobs, %d new", saved, len(jobs), len(newJobs))
	return saved, newJobs, nil
}

// mergeJob upserts one candidate and reports whether a new row was
// inserted.
func mergeJob(ctx context.Context, q execQuerier, job scraper.JobData) (bool, error) {
	company, err := findCompanyByName(ctx, q, job.CompanyName)
	if err != nil {
		return false, err
	}
	if company == nil {
		company, err = createCompany(ctx, q, job.CompanyName, defaultIndustry)
		if err != nil {
			return false, err
		}
	}

	existing, err := findJobByExternalIDOrURL(ctx, q, job.ExternalID, job.URL)
	if err != nil {
		return false, err
	}

	if existing != nil {
		_, err = q.Exec(ctx,
			`UPDATE jobs SET
				title = $1, company_id = $2, description = $3, location = $4,
				job_type = $5, experience_level = $6,
				salary_min = $7, salary_max = $8, salary_currency = $9,
				posted_date = $10, is_active = $11, updated_at = now()
			WHERE id = $12`,
			job.Title, company.ID, job.Description, job.Location,
			nullIfEmpty(job.JobType), nullIfEmpty(job.ExperienceLevel),
			job.SalaryMin, job.SalaryMax, job.SalaryCurrency,
			job.PostedDate, job.IsActive, existing.ID,
		)
		if err != nil {
			return false, fmt.Errorf("update job: %w", err)
		}
		return false, nil
	}

	_, err = q.Exec(ctx,
		`INSERT INTO jobs (
			external_id, title, company_id, description, location, url, source,
			job_type, experience_level, salary_min, salary_max, salary_currency,
			posted_date, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14
		)`,
		job.ExternalID, job.Title, company.ID, job.Description, job.Location,
		nullIfEmpty(job.URL), string(job.Source),
		nullIfEmpty(job.JobType), nullIfEmpty(job.ExperienceLevel),
		job.SalaryMin, job.SalaryMax, job.SalaryCurrency,
		job.PostedDate, job.IsActive,
	)
	if err != nil {
		return false, fmt.Errorf("insert job: %w", err)
	}
	return true, nil
}

// nullIfEmpty maps "" to SQL NULL so url-less candidates never collide on
// an empty-string unique key.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
