// Package config loads configuration values from environment variables with a
// fail-open policy: a value that is unset uses its default silently, and a
// value that fails to parse or validate falls back to the default with a
// warning instead of stopping the process.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Loaded is the result of loading a single configuration value.
//
// Example:
//
//	res := LoadEnvDuration("CRAWL_TIMEOUT", 30*time.Minute, ValidatePositiveDuration)
//	for _, w := range res.Warnings {
//	    logger.Warn("configuration fallback", slog.String("warning", w))
//	}
//	timeout := res.Value
type Loaded[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString returns the environment value or defaultValue when unset or empty.
// No validation is performed.
func LoadEnvString(envKey, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(envKey))
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string and validates it. An invalid value
// yields the default plus a warning in the form
//
//	"Invalid {envKey}='{value}': {error}, falling back to default '{default}'"
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) Loaded[string] {
	return load(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string ("30s", "5m", "1h30m").
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) Loaded[time.Duration] {
	return load(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) Loaded[int] {
	return load(envKey, defaultValue, func(s string) (int, error) {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return v, nil
	}, validator)
}

// LoadEnvBool loads a boolean. Accepted values are those of strconv.ParseBool.
func LoadEnvBool(envKey string, defaultValue bool) Loaded[bool] {
	return load(envKey, defaultValue, func(s string) (bool, error) {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
		}
		return v, nil
	}, nil)
}

func load[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) Loaded[T] {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return Loaded[T]{Value: defaultValue}
	}

	fallback := func(err error) Loaded[T] {
		return Loaded[T]{
			Value: defaultValue,
			Warnings: []string{fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%v'",
				envKey, raw, err, defaultValue,
			)},
			FallbackApplied: true,
		}
	}

	v, err := parse(raw)
	if err != nil {
		return fallback(err)
	}
	if validator != nil {
		if err := validator(v); err != nil {
			return fallback(err)
		}
	}
	return Loaded[T]{Value: v}
}
