package entity

import (
	"fmt"
	"strings"
)

type CheckStatus string

const (
	StatusAccepting    CheckStatus = "Accepting"
	StatusNotAccepting CheckStatus = "Not Accepting"
	StatusUnclear      CheckStatus = "Unclear"
)

// ParseCheckStatus accepts the three wire values plus "NotAccepting".
func ParseCheckStatus(s string) (CheckStatus, error) {
	switch CheckStatus(s) {
	case StatusAccepting, StatusNotAccepting, StatusUnclear:
		return CheckStatus(s), nil
	}
	if s == "NotAccepting" {
		return StatusNotAccepting, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func (s CheckStatus) String() string {
	return string(s)
}

// Practice is a configured check target.
type Practice struct {
	Name string `yaml:"practice" json:"practice"`
	URL  string `yaml:"url" json:"url"`
}

type PracticeCheck struct {
	Practice     string      `json:"practice"`
	URL          string      `json:"url"`
	Status       CheckStatus `json:"status"`
	Evidence     string      `json:"evidence"`
	ContactEmail *string     `json:"contact_email"`
	CheckedAt    *string     `json:"checked_at"`
}

func (c PracticeCheck) HasEmail() bool {
	return c.ContactEmail != nil && strings.TrimSpace(*c.ContactEmail) != ""
}
