package env

import (
	"os"
	"strconv"
	"strings"
)

// GetEnvOrDefault returns the environment variable value or a fallback.
func GetEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvBoolOrDefault parses a boolean environment variable, accepting the
// usual true/1/yes spellings.
func GetEnvBoolOrDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// GetEnvIntOrDefault parses an integer environment variable.
func GetEnvIntOrDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
