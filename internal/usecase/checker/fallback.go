package checker

import (
	"gp-intake-checker/internal/domain/entity"
)

// Fallback is the record used when the agent returns an empty result.
func Fallback(p entity.Practice) entity.PracticeCheck {
	return entity.PracticeCheck{
		Practice: p.Name,
		URL:      p.URL,
		Status:   entity.StatusUnclear,
		Evidence: "",
	}
}

// FailureFallback records a practice whose check failed, keeping the error
// text as evidence so the failure is visible in the output.
func FailureFallback(p entity.Practice, err error) entity.PracticeCheck {
	check := Fallback(p)
	if err != nil {
		check.Evidence = "check failed: " + err.Error()
	}
	return check
}
