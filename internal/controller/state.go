package controller

import (
	"github.com/ak0605-AI/Customer-Churn-System/internal/analysis"
)

// UploadPhase tracks the local submission attempt, distinct from the remote
// analysis status. The uploading and error phases exist only before an
// analysis is created or when submission itself fails.
type UploadPhase string

const (
	PhaseIdle       UploadPhase = "idle"
	PhaseUploading  UploadPhase = "uploading"
	PhaseProcessing UploadPhase = "processing"
	PhaseError      UploadPhase = "error"
)

// Snapshot is an immutable view of the controller state at one version.
// Readers never observe partial updates; the prediction records inside
// CurrentJob are replaced wholesale on every applied fetch and must not be
// mutated by readers.
type Snapshot struct {
	Version       uint64
	SelectedFile  string
	UploadPhase   UploadPhase
	UploadError   string
	CurrentJob    *analysis.Analysis
	History       []analysis.Analysis
	PollStalled   bool
	LastPollError string
}

// HasCurrentJob reports whether an analysis is currently displayed.
func (s Snapshot) HasCurrentJob() bool {
	return s.CurrentJob != nil
}

// snapshotLocked builds a Snapshot from the current state. Caller holds c.mu.
func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:       c.version,
		SelectedFile:  c.selectedFile,
		UploadPhase:   c.uploadPhase,
		UploadError:   c.uploadError,
		History:       c.history.Snapshot(),
		PollStalled:   c.pollStalled,
		LastPollError: c.lastPollError,
	}
	if c.current != nil {
		current := *c.current
		snap.CurrentJob = &current
	}
	return snap
}
