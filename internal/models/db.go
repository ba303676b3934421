package models

import (
	"time"
)

type ApplicationStatus string

const (
	StatusQualified ApplicationStatus = "QUALIFIED"
	StatusHandedOff ApplicationStatus = "HANDED_OFF"
	StatusFailed    ApplicationStatus = "FAILED"
)

// JobRecord is a qualified posting as stored in the jobs table.
type JobRecord struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	ExternalID string    `json:"external_id"`
	Title      string    `json:"title"`
	Company    string    `json:"company"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
}

// Application tracks what happened to a qualified job in one run.
type Application struct {
	ID         string            `json:"id"`
	JobID      string            `json:"job_id"`
	RunID      string            `json:"run_id"`
	Status     ApplicationStatus `json:"status"`
	MatchScore int               `json:"match_score"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}
