package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gp-intake-checker/internal/domain/entity"
)

// WriteJSON writes checks as an indented JSON array. Non-ASCII and HTML
// characters are written as-is.
func WriteJSON(w io.Writer, checks []entity.PracticeCheck) error {
	if checks == nil {
		checks = []entity.PracticeCheck{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(checks); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}
