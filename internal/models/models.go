// Package models defines the persisted entities shared by the scraping
// pipeline and the API layer.
package models

import "time"

// JobSource identifies the listing site a job was scraped from.
type JobSource string

const (
	SourceIndeed   JobSource = "indeed"
	SourceLinkedIn JobSource = "linkedin"
)

// JobType classifies the employment arrangement of a listing.
type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
)

// ExperienceLevel is the seniority band inferred from a listing's text.
type ExperienceLevel string

const (
	LevelEntry  ExperienceLevel = "entry"
	LevelJunior ExperienceLevel = "junior"
	LevelMid    ExperienceLevel = "mid"
	LevelSenior ExperienceLevel = "senior"
)

// Company is an employer referenced by one or more jobs.
// Company identity is resolved by case-insensitive substring match on name,
// deliberately looser than exact match so that minor formatting differences
// across sources map to the same row.
type Company struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Website   *string    `json:"website,omitempty"`
	Industry  *string    `json:"industry,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Job is a persisted job listing. external_id is unique, url is unique
// when present (url-less listings are stored with a NULL url so they
// never alias each other). Rows are created on first sighting and mutated
// in place on re-sighting, never deleted by the scraping pipeline.
// CompanyID is nullable: removing a company clears the reference, the job
// survives.
type Job struct {
	ID              int64      `json:"id"`
	ExternalID      string     `json:"external_id"`
	Title           string     `json:"title"`
	CompanyID       *int64     `json:"company_id,omitempty"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	URL             string     `json:"url"`
	Source          JobSource  `json:"source"`
	JobType         *string    `json:"job_type,omitempty"`
	ExperienceLevel *string    `json:"experience_level,omitempty"`
	SalaryMin       *float64   `json:"salary_min,omitempty"`
	SalaryMax       *float64   `json:"salary_max,omitempty"`
	SalaryCurrency  string     `json:"salary_currency"`
	PostedDate      *time.Time `json:"posted_date,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}
