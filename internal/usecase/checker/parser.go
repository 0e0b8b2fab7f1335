package checker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gp-intake-checker/internal/domain/entity"
)

var ErrSchemaViolation = errors.New("agent result violates output schema")

// ParseChecks strictly decodes an agent payload. An empty array is not an
// error; it yields an empty slice.
func ParseChecks(payload string) ([]entity.PracticeCheck, error) {
	data := bytes.TrimSpace([]byte(payload))
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("%w: payload is not a JSON array", ErrSchemaViolation)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	checks := make([]entity.PracticeCheck, 0, len(raw))
	for i, item := range raw {
		check, err := decodeCheck(item)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrSchemaViolation, i, err)
		}
		checks = append(checks, check)
	}

	return checks, nil
}

// FirstCheck returns the first parsed record; extra records are ignored.
func FirstCheck(checks []entity.PracticeCheck) (entity.PracticeCheck, bool) {
	if len(checks) == 0 {
		return entity.PracticeCheck{}, false
	}
	return checks[0], true
}

// decodeCheck reads one record by exact key. Case variants of a key are
// treated like any other unknown key.
func decodeCheck(item json.RawMessage) (entity.PracticeCheck, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return entity.PracticeCheck{}, err
	}
	if fields == nil {
		return entity.PracticeCheck{}, errors.New("record is null")
	}

	var check entity.PracticeCheck
	var err error
	if check.Practice, err = requiredString(fields, "practice"); err != nil {
		return entity.PracticeCheck{}, err
	}
	if check.URL, err = requiredString(fields, "url"); err != nil {
		return entity.PracticeCheck{}, err
	}
	status, err := requiredString(fields, "status")
	if err != nil {
		return entity.PracticeCheck{}, err
	}
	if check.Status, err = entity.ParseCheckStatus(status); err != nil {
		return entity.PracticeCheck{}, err
	}
	if check.Evidence, err = requiredString(fields, "evidence"); err != nil {
		return entity.PracticeCheck{}, err
	}
	if check.ContactEmail, err = optionalString(fields, "contact_email"); err != nil {
		return entity.PracticeCheck{}, err
	}
	if check.CheckedAt, err = optionalString(fields, "checked_at"); err != nil {
		return entity.PracticeCheck{}, err
	}

	return check, nil
}

func requiredString(fields map[string]json.RawMessage, key string) (string, error) {
	value, err := optionalString(fields, key)
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", fmt.Errorf("missing field %s", key)
	}
	return *value, nil
}

// optionalString treats an absent key and JSON null alike.
func optionalString(fields map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("field %s: %v", key, err)
	}
	return &value, nil
}
