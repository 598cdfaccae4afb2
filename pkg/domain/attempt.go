package domain

import "time"

// Entry values reported through cmi.entry.
const (
	EntryAbInitio = "ab-initio"
	EntryResume   = "resume"
)

// ExitSuspend is the cmi.exit vocabulary member that makes the next launch resume.
const ExitSuspend = "suspend"

// Attempt is the persisted record of a learner registration on one SCO.
// Stores treat it as an opaque document keyed by RegistrationID.
type Attempt struct {
	RegistrationID string `json:"registration_id"`
	LearnerID      string `json:"learner_id"`
	ScoID          string `json:"sco_id"`

	// SessionID is the live session that last wrote this record.
	SessionID string `json:"session_id,omitempty"`

	// Data is the last snapshot delivered by a Commit or Terminate hook.
	Data Snapshot `json:"data"`

	Commits      int        `json:"commits"`
	StartedAt    time.Time  `json:"started_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	TerminatedAt *time.Time `json:"terminated_at,omitempty"`
}

// NewAttempt creates an empty attempt for a registration.
func NewAttempt(registrationID, learnerID, scoID string) *Attempt {
	now := time.Now().UTC()
	return &Attempt{
		RegistrationID: registrationID,
		LearnerID:      learnerID,
		ScoID:          scoID,
		Data:           Snapshot{},
		StartedAt:      now,
		UpdatedAt:      now,
	}
}

// Terminated reports whether the attempt's session ended with Terminate.
func (a *Attempt) Terminated() bool {
	return a.TerminatedAt != nil
}

// Resumable reports whether a new launch should continue this attempt.
// That is the case when the SCO suspended, or when its session never terminated.
func (a *Attempt) Resumable() bool {
	if !a.Terminated() {
		return true
	}
	return a.Data["cmi.exit"] == ExitSuspend
}

// Clone returns a deep copy of the attempt.
func (a *Attempt) Clone() *Attempt {
	c := *a
	c.Data = a.Data.Clone()
	if a.TerminatedAt != nil {
		t := *a.TerminatedAt
		c.TerminatedAt = &t
	}
	return &c
}
