package config

import (
	"errors"
	"strings"
)

// Validation errors for configuration fields.
var (
	// ErrVersionTooLow indicates the version field is below the minimum.
	ErrVersionTooLow = errors.New("version must be >= 1")

	// ErrInvalidMode indicates default_mode is neither move nor copy.
	ErrInvalidMode = errors.New("default_mode must be move or copy")

	// ErrInvalidRetention indicates an unrecognized retention strategy.
	ErrInvalidRetention = errors.New("retention must be keep_all or replace_previous")

	// ErrInvalidRoleLimit indicates a negative role_limit.
	ErrInvalidRoleLimit = errors.New("role_limit must be >= 0")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if cfg.Version < 1 {
		errs = append(errs, ErrVersionTooLow)
	}

	switch cfg.DefaultMode {
	case "", ModeMove, ModeCopy:
	default:
		errs = append(errs, &FieldError{Field: "default_mode", Value: cfg.DefaultMode, Err: ErrInvalidMode})
	}

	switch cfg.Retention {
	case "", RetentionKeepAll, RetentionReplacePrevious:
	default:
		errs = append(errs, &FieldError{Field: "retention", Value: cfg.Retention, Err: ErrInvalidRetention})
	}

	if cfg.RoleLimit < 0 {
		errs = append(errs, ErrInvalidRoleLimit)
	}

	for _, field := range []struct{ name, value string }{
		{"live_root", cfg.LiveRoot},
		{"archive_root", cfg.ArchiveRoot},
	} {
		if err := validatePath(field.value); err != nil {
			errs = append(errs, &FieldError{Field: field.name, Value: field.value, Err: err})
		}
	}

	return errs
}

// validatePath checks if a path string is well-formed.
// It does not check if the path exists, only that it's syntactically valid.
func validatePath(path string) error {
	// Empty paths are valid (they mean "use default")
	if path == "" {
		return nil
	}
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}
	return nil
}

// FieldError represents an error for a specific config field.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error() + ": " + e.Value
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
