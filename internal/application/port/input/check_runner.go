package input

import (
	"context"

	"gp-intake-checker/internal/domain/entity"
)

// CheckRunner verifies every practice in order and returns one record per practice.
type CheckRunner interface {
	Run(ctx context.Context, practices []entity.Practice) ([]entity.PracticeCheck, error)
}
