package domain

import (
	"fmt"
	"time"
)

// RunStatus is the terminal state of an alias generation invocation.
type RunStatus string

const (
	RunStatusDone    RunStatus = "done"
	RunStatusAborted RunStatus = "aborted"
)

// IsValid checks if the status is one of the supported values
func (s RunStatus) IsValid() bool {
	return s == RunStatusDone || s == RunStatusAborted
}

// AliasRun records one alias generation invocation.
type AliasRun struct {
	ID         string
	Handle     string
	Mode       Mode
	Status     RunStatus
	ErrorCode  string
	Message    string
	Discovered []string
	Aliases    []string
	Model      string
	DurationMS int64
	CreatedAt  time.Time
}

// ValidateAliasRun validates an AliasRun instance
func ValidateAliasRun(r *AliasRun) error {
	if r == nil {
		return fmt.Errorf("alias run cannot be nil")
	}
	if r.ID == "" {
		return fmt.Errorf("alias run ID is required")
	}
	if !r.Mode.IsValid() {
		return ErrInvalidMode
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("invalid alias run status %q", r.Status)
	}
	if r.Status == RunStatusAborted && r.ErrorCode == "" {
		return fmt.Errorf("aborted alias run requires an error code")
	}
	return nil
}
