// Package errutils provides the error values shared across mvnindex.
// It defines sentinel errors for every failure category, error wrapping
// helpers and a few constructors that attach the offending value to a
// sentinel so callers can still match it with errors.Is.
package errutils

import (
	"fmt"
)

// Common error types used throughout the application.
// Errors are grouped by their domain or functionality.
var (
	// Index errors are related to repository index handling.

	// ErrIndexOpen is returned when the index engine cannot open or create
	// storage for a repository location.
	ErrIndexOpen = fmt.Errorf("cannot open index")

	// ErrIndexUpdate is returned when the index engine fails while updating
	// or repairing an index.
	ErrIndexUpdate = fmt.Errorf("index update failed")

	// ErrIndexBroken is returned by the engine when an index's data is corrupt.
	ErrIndexBroken = fmt.Errorf("index is broken")

	// ErrRegistryClosed is returned by every registry operation after Close.
	ErrRegistryClosed = fmt.Errorf("index registry is closed")

	// ErrUnknownKind is returned when an index kind cannot be parsed.
	ErrUnknownKind = fmt.Errorf("unknown index kind")

	// ErrArtifactOutsideRepository is returned when an artifact file does not
	// live under the index root it is added to.
	ErrArtifactOutsideRepository = fmt.Errorf("artifact is outside the repository")

	// Archetype errors.

	// ErrInvalidArchetype is returned when an archetype misses a required coordinate.
	ErrInvalidArchetype = fmt.Errorf("invalid archetype")

	// ErrProvider is returned when an archetype source fails to list its entries.
	ErrProvider = fmt.Errorf("archetype source failed")

	// ErrPersistence is returned when the user archetype document cannot be
	// read or written.
	ErrPersistence = fmt.Errorf("archetype persistence failed")

	// ErrCatalogParse is returned when an archetype catalog document is malformed.
	ErrCatalogParse = fmt.Errorf("failed to parse archetype catalog")

	// Config errors are related to configuration file operations and validation.

	ErrEmptyConfigPath = fmt.Errorf(
		"config file path cannot be empty") // When config file path is empty

	ErrInvalidConfigPath = fmt.Errorf(
		"invalid config file path") // When provided config file path is invalid

	ErrConfigParse = fmt.Errorf(
		"failed to parse config") // When config file cannot be parsed

	// ErrConfigValidation is returned when configuration values fail validation.
	ErrConfigValidation = fmt.Errorf("invalid configuration")

	ErrConfigEncode = fmt.Errorf(
		"failed to encode config") // When config cannot be encoded

	ErrConfigDirectory = fmt.Errorf(
		"failed to create config directory") // When config dir cannot be created

	ErrConfigFileCreate = fmt.Errorf(
		"failed to create config file") // When config file cannot be created

	// ErrConfigFileExists is returned when attempting to create a configuration file that already exists.
	ErrConfigFileExists = fmt.Errorf("configuration file already exists (use --force to overwrite)")

	// ErrConfigMarshal is returned when marshaling the config to YAML fails.
	ErrConfigMarshal = fmt.Errorf("failed to marshal config to YAML")

	// ErrHTTPTimeoutNegative is returned when HTTP timeout is set to a negative value.
	ErrHTTPTimeoutNegative = fmt.Errorf("http_timeout cannot be negative")

	// ErrMaxConcurrentInvalid is returned when max_concurrent_sources is less than 1.
	ErrMaxConcurrentInvalid = fmt.Errorf("max_concurrent_sources must be at least 1")

	// ErrInvalidOutputFormat is returned when an invalid output format is specified.
	ErrInvalidOutputFormat = fmt.Errorf("invalid output format")

	// ErrInvalidLogLevel is returned when an invalid log level is specified.
	ErrInvalidLogLevel = fmt.Errorf("invalid log level")

	// ErrUnknownConfigKey is returned when an unknown configuration key is encountered.
	ErrUnknownConfigKey = fmt.Errorf("unknown configuration key")

	// ErrEmptyRepositoryURL is returned when a remote repository entry has no URL.
	ErrEmptyRepositoryURL = fmt.Errorf("repository URL cannot be empty")

	// ErrRepositoryExists is returned when two remote repositories share a name.
	ErrRepositoryExists = fmt.Errorf("repository already exists")

	// ErrEmptyCatalogLocation is returned when an archetype catalog entry has no location.
	ErrEmptyCatalogLocation = fmt.Errorf("archetype catalog location cannot be empty")

	// Filesystem and transfer errors.

	// ErrInvalidPath is returned when a file or directory path is invalid.
	ErrInvalidPath = fmt.Errorf("invalid path")

	// ErrFileNotFound is returned when a required file cannot be found.
	ErrFileNotFound = fmt.Errorf("file not found")

	// ErrValidation is returned for generic argument validation failures.
	ErrValidation = fmt.Errorf("validation failed")

	// ErrFileHashMismatch is returned when a file's hash doesn't match the expected value.
	ErrFileHashMismatch = fmt.Errorf("file hash mismatch")

	// ErrDownloadFailed is returned when a download operation fails.
	ErrDownloadFailed = fmt.Errorf("download failed")

	// Hook errors.

	// ErrHookExecution is returned when there's an error executing a hook script.
	ErrHookExecution = fmt.Errorf("error executing hook")

	// ErrHookLoad is returned when a hook script cannot be loaded.
	ErrHookLoad = fmt.Errorf("failed to load hook")

	// ErrHookScript is returned when a hook script reports an error through its err variable.
	ErrHookScript = fmt.Errorf("hook script error")
)

// Wrap wraps an error with additional context.
// This is useful for adding context to errors as they propagate up the call stack.
// If the error is nil, Wrap returns nil.
//
// Example:
//
//	if err := someOperation(); err != nil {
//	    return errutils.Wrap(err, "failed to perform operation")
//	}
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
// If the error is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrIndexOpenWithLocation wraps the engine failure for a location with ErrIndexOpen.
func ErrIndexOpenWithLocation(location string, cause error) error {
	return fmt.Errorf("%w %q: %w", ErrIndexOpen, location, cause)
}

// ErrIndexUpdateWithLocation wraps an engine update failure with ErrIndexUpdate.
func ErrIndexUpdateWithLocation(location string, cause error) error {
	return fmt.Errorf("%w for %q: %w", ErrIndexUpdate, location, cause)
}

// ErrUnknownKindWithValue is a helper to create a wrapped error with the offending kind.
func ErrUnknownKindWithValue(kind string) error {
	return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// ErrRepositoryExistsWithName is a helper to create a wrapped error with the repository name.
func ErrRepositoryExistsWithName(name string) error {
	return fmt.Errorf("repository '%s': %w", name, ErrRepositoryExists)
}

// ErrInvalidOutputFormatWithDetails is a helper to create a wrapped error with the invalid format and valid options.
func ErrInvalidOutputFormatWithDetails(format string) error {
	return fmt.Errorf("%w: '%s', must be one of: text, json", ErrInvalidOutputFormat, format)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: error, warn, info, debug", ErrInvalidLogLevel, level)
}
