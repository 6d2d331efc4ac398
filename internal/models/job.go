package models

import "time"

// JobStatus is the scheduler's per-job state machine.
type JobStatus string

const (
	JobScheduled   JobStatus = "scheduled"
	JobRunning     JobStatus = "running"
	JobPaused      JobStatus = "paused"
	JobFailed      JobStatus = "failed"
	JobCircuitOpen JobStatus = "circuit_open"
	JobRemoved     JobStatus = "removed"
)

// Job is the scheduler's per-site bookkeeping record. Mutated only by
// the scheduler.
type Job struct {
	ID                  string
	SiteID              string
	NextRunAt           time.Time
	LastRunAt           *time.Time
	LastSuccessAt       *time.Time
	RetryCount          int
	MaxRetries          int
	ConsecutiveFailures int
	Status              JobStatus
	Priority            int
}
