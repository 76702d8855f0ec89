package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of an AntRun.
type RunStatus string

const (
	RunRunning   RunStatus = "RUNNING"
	RunSucceeded RunStatus = "SUCCEEDED"
	RunFailed    RunStatus = "FAILED"
)

// AntRun captures a single execution attempt of an ant in a specific room.
// It is created RUNNING and makes exactly one terminal transition.
type AntRun struct {
	ID         string
	AntID      string
	OwnerID    string
	RoomID     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     RunStatus
	Notes      string
	Error      string
}

// StartRun creates a RUNNING run record.
func StartRun(antID, ownerID, roomID string) AntRun {
	return AntRun{
		ID:        uuid.NewString(),
		AntID:     antID,
		OwnerID:   ownerID,
		RoomID:    roomID,
		StartedAt: time.Now().UTC(),
		Status:    RunRunning,
	}
}

// Succeeded terminates the run successfully.
func (r AntRun) Succeeded(notes string) AntRun {
	now := time.Now().UTC()
	r.FinishedAt = &now
	r.Status = RunSucceeded
	r.Notes = notes
	r.Error = ""
	return r
}

// Failed terminates the run with an error summary.
func (r AntRun) Failed(notes, errSummary string) AntRun {
	now := time.Now().UTC()
	r.FinishedAt = &now
	r.Status = RunFailed
	r.Notes = notes
	r.Error = errSummary
	return r
}
