package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gp-intake-checker/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

//go:embed practices.yaml
var defaultPracticesYAML []byte

var (
	ErrNoPractices     = errors.New("no practices configured")
	ErrInvalidPractice = errors.New("invalid practice")
)

type practicesFile struct {
	Practices []entity.Practice `yaml:"practices"`
}

// LoadPractices reads the practice list from path, or the built-in list when
// path is empty.
func LoadPractices(path string) ([]entity.Practice, error) {
	if path == "" {
		return DefaultPractices()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read practices file: %w", err)
	}

	practices, err := ParsePractices(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return practices, nil
}

func DefaultPractices() ([]entity.Practice, error) {
	return ParsePractices(defaultPracticesYAML)
}

func ParsePractices(data []byte) ([]entity.Practice, error) {
	var file practicesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode practices: %w", err)
	}

	if len(file.Practices) == 0 {
		return nil, ErrNoPractices
	}

	for i, p := range file.Practices {
		if err := validatePractice(p); err != nil {
			return nil, fmt.Errorf("practice %d: %w", i, err)
		}
	}

	return file.Practices, nil
}

func validatePractice(p entity.Practice) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPractice)
	}

	u, err := url.Parse(p.URL)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidPractice, p.URL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q is not an http(s) URL", ErrInvalidPractice, p.URL)
	}

	return nil
}
