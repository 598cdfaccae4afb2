package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/scorm/pkg/domain"
	"github.com/aretw0/scorm/pkg/ports"
)

// Mask replaces the value of every masked element.
const Mask = "***"

// DefaultPIIPatterns match the data model elements that identify a learner
// or carry free text they typed.
var DefaultPIIPatterns = []string{
	`^cmi\.learner_name$`,
	`^cmi\.comments_from_learner\.\d+\.comment$`,
	`^cmi\.interactions\.\d+\.learner_response$`,
}

type piiMiddleware struct {
	next     ports.AttemptStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of elements matching the patterns.
// Masking is one-way: a resumed attempt sees Mask instead of the original value.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.AttemptStore) ports.AttemptStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, registrationID string, attempt *domain.Attempt) error {
	// The live session may still hold this snapshot.
	masked := attempt.Clone()
	for element := range masked.Data {
		if m.matches(element) {
			masked.Data[element] = Mask
		}
	}
	return m.next.Save(ctx, registrationID, masked)
}

func (m *piiMiddleware) matches(element string) bool {
	for _, p := range m.patterns {
		if p.MatchString(element) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) Load(ctx context.Context, registrationID string) (*domain.Attempt, error) {
	return m.next.Load(ctx, registrationID)
}

func (m *piiMiddleware) Delete(ctx context.Context, registrationID string) error {
	return m.next.Delete(ctx, registrationID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
