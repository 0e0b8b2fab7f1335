package env

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissing = errors.New("required environment variable is missing")
	ErrInvalid = errors.New("environment variable has an invalid value")
)

type EnvService struct{}

// NewEnvService loads .env and then .env.$APP_ENV on top of the process
// environment. Missing files are fine.
func NewEnvService() *EnvService {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}

	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	envFile := fmt.Sprintf(".env.%s", appEnv)
	if err := godotenv.Overload(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load %s: %v", envFile, err)
	}

	return &EnvService{}
}

func (e *EnvService) Get(key string) string {
	return os.Getenv(key)
}

func (e *EnvService) MustGet(key string) (string, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return "", fmt.Errorf("%w: %s", ErrMissing, key)
	}
	return val, nil
}

func (e *EnvService) GetWithDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func (e *EnvService) GetBool(key string, defaultValue bool) (bool, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue, fmt.Errorf("%w: %s=%q", ErrInvalid, key, val)
	}
	return parsed, nil
}

// GetTruthy reports whether key is one of 1, true, yes (any case).
// Everything else, including unset, is false.
func (e *EnvService) GetTruthy(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (e *EnvService) GetInt(key string, defaultValue int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue, fmt.Errorf("%w: %s=%q", ErrInvalid, key, val)
	}
	return parsed, nil
}

func (e *EnvService) GetDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue, fmt.Errorf("%w: %s=%q: %v", ErrInvalid, key, val, err)
	}
	return parsed, nil
}
