package checker

import (
	"gp-intake-checker/internal/domain/entity"
)

// Results collects normalized records in input order. It never sorts,
// filters or deduplicates.
type Results struct {
	checks []entity.PracticeCheck
}

func NewResults(capacity int) *Results {
	return &Results{checks: make([]entity.PracticeCheck, 0, capacity)}
}

func (r *Results) Append(check entity.PracticeCheck) {
	r.checks = append(r.checks, check)
}

func (r *Results) Len() int {
	return len(r.checks)
}

func (r *Results) All() []entity.PracticeCheck {
	out := make([]entity.PracticeCheck, len(r.checks))
	copy(out, r.checks)
	return out
}
