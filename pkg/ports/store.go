package ports

import (
	"context"

	"github.com/aretw0/scorm/pkg/domain"
)

// AttemptStore persists learner attempts keyed by registration ID.
// It is what the commit and terminate hooks write to, and what a relaunch resumes from.
type AttemptStore interface {
	// Save persists the attempt for a given registration ID, replacing any previous copy.
	Save(ctx context.Context, registrationID string, attempt *domain.Attempt) error

	// Load retrieves the attempt for a given registration ID.
	// Returns domain.ErrAttemptNotFound if nothing was saved.
	Load(ctx context.Context, registrationID string) (*domain.Attempt, error)

	// Delete removes the attempt. Deleting an unknown registration is not an error.
	Delete(ctx context.Context, registrationID string) error

	// List returns the registration IDs of all stored attempts.
	List(ctx context.Context) ([]string, error)
}
