package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 4KB (conservative default)
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "TOOLGUIDE_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput cleans user input by enforcing size limits,
// validating UTF-8, and stripping dangerous control characters.
// The limit comes from EnvMaxInputSize or DefaultMaxInputSize.
func SanitizeInput(input string) (string, error) {
	return SanitizeInputWithLimit(input, MaxInputSize())
}

// SanitizeInputWithLimit is SanitizeInput with an explicit byte limit.
func SanitizeInputWithLimit(input string, limit int) (string, error) {
	// We explicitly reject rather than truncate to ensure deterministic state.
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Strip control characters except newline, tab and carriage return.
	// This prevents log poisoning and terminal corruption.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// SanitizeReport applies the input policy to an agent report: the encoded
// report must fit the limit and every string inside it is cleaned.
func SanitizeReport(report map[string]any, limit int) (map[string]any, error) {
	if report == nil {
		return nil, nil
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("report is not JSON-encodable: %w", err)
	}
	if len(raw) > limit {
		return nil, fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(raw), limit)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	cleaned, err := sanitizeValue(generic, limit)
	if err != nil {
		return nil, err
	}
	return cleaned.(map[string]any), nil
}

func sanitizeValue(v any, limit int) (any, error) {
	switch val := v.(type) {
	case string:
		return SanitizeInputWithLimit(val, limit)
	case map[string]any:
		for k, item := range val {
			clean, err := sanitizeValue(item, limit)
			if err != nil {
				return nil, err
			}
			val[k] = clean
		}
		return val, nil
	case []any:
		for i, item := range val {
			clean, err := sanitizeValue(item, limit)
			if err != nil {
				return nil, err
			}
			val[i] = clean
		}
		return val, nil
	}
	return v, nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

// MaxInputSize returns the effective input limit.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
