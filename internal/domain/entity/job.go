package entity

import (
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a FeedJob.
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// CanTransitionTo reports whether moving from s to next keeps the status monotonic.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobPending:
		return next == JobRunning || next == JobCompleted || next == JobFailed
	case JobRunning:
		return next == JobCompleted || next == JobFailed
	default:
		return false
	}
}

// FeedJob is the audit record of one fetch attempt for one source.
type FeedJob struct {
	ID            int64
	RunID         string
	SourceID      int64
	Status        JobStatus
	StartedAt     time.Time
	CompletedAt   *time.Time
	ArticlesFound int
	ArticlesAdded int
	Error         *string
}

// Start moves a pending job to RUNNING.
func (j *FeedJob) Start(at time.Time) error {
	if !j.Status.CanTransitionTo(JobRunning) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidJobTransition, j.Status, JobRunning)
	}
	j.Status = JobRunning
	j.StartedAt = at
	return nil
}

// Complete closes the job successfully. added can never exceed found.
func (j *FeedJob) Complete(at time.Time, found, added int) error {
	if !j.Status.CanTransitionTo(JobCompleted) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidJobTransition, j.Status, JobCompleted)
	}
	if found < 0 || added < 0 || added > found {
		return &ValidationError{
			Field:   "articles_added",
			Message: fmt.Sprintf("counts out of range (found=%d added=%d)", found, added),
		}
	}
	j.Status = JobCompleted
	j.CompletedAt = &at
	j.ArticlesFound = found
	j.ArticlesAdded = added
	return nil
}

// Fail closes the job with an error message.
func (j *FeedJob) Fail(at time.Time, message string) error {
	if !j.Status.CanTransitionTo(JobFailed) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidJobTransition, j.Status, JobFailed)
	}
	if message == "" {
		message = "unknown error"
	}
	j.Status = JobFailed
	j.CompletedAt = &at
	j.Error = &message
	return nil
}
