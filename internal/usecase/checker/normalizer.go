package checker

import (
	"strings"
	"time"

	"gp-intake-checker/internal/domain/entity"
)

// CheckedAtLayout is ISO-8601 with microseconds and a literal Z; values must
// be converted to UTC before formatting.
const CheckedAtLayout = "2006-01-02T15:04:05.000000Z"

type Normalizer struct {
	now func() time.Time
}

func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize enforces the record invariants in place. Order matters: identity
// first, then email, then the timestamp.
func (n *Normalizer) Normalize(check *entity.PracticeCheck, p entity.Practice) {
	check.Practice = p.Name
	check.URL = p.URL

	if check.Status != entity.StatusAccepting {
		check.ContactEmail = nil
	} else if check.ContactEmail != nil {
		email := strings.TrimSpace(*check.ContactEmail)
		if email == "" {
			check.ContactEmail = nil
		} else {
			check.ContactEmail = &email
		}
	}

	stamp := n.now().UTC().Format(CheckedAtLayout)
	check.CheckedAt = &stamp
}
