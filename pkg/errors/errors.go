package errors

import (
	"errors"
	"fmt"
)

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to replace config file")
	ErrConfigFileExists  = fmt.Errorf("config file already exists")
	ErrConfigMarshal     = fmt.Errorf("failed to marshal config")

	// Resolution errors. These indicate an internal inconsistency between
	// the install records and the manifests, never a network failure.
	ErrInstallNotFound     = fmt.Errorf("install not found")
	ErrManifestNotFound    = fmt.Errorf("manifest record not found")
	ErrManifestUnavailable = fmt.Errorf("game manifest unavailable")
	ErrVersionNotFound     = fmt.Errorf("no manifest entry for version")
	ErrAmbiguousVersion    = fmt.Errorf("more than one manifest entry for version")

	// Operation errors.
	ErrNoApplicableFile  = fmt.Errorf("no applicable file for version")
	ErrTransferFailed    = fmt.Errorf("transfer failed")
	ErrExtractionFailed  = fmt.Errorf("extraction failed")
	ErrPatchFailed       = fmt.Errorf("patch failed")
	ErrFixupFailed       = fmt.Errorf("fixup failed")
	ErrUnsupportedMode   = fmt.Errorf("unsupported download mode")
	ErrOperationInFlight = fmt.Errorf("operation already in flight for install")
	ErrCancelled         = fmt.Errorf("operation cancelled")
	ErrHashMismatch      = fmt.Errorf("hash mismatch")
	ErrInvalidPath       = fmt.Errorf("invalid path")

	// Store errors.
	ErrInstallExists = fmt.Errorf("install already exists")
	ErrStoreLoad     = fmt.Errorf("failed to load store")
	ErrStoreSave     = fmt.Errorf("failed to save store")
)

// IsResolution reports whether err belongs to the resolution group.
// Resolution errors abort an operation with a log line only.
func IsResolution(err error) bool {
	return errors.Is(err, ErrInstallNotFound) ||
		errors.Is(err, ErrManifestNotFound) ||
		errors.Is(err, ErrManifestUnavailable) ||
		errors.Is(err, ErrVersionNotFound) ||
		errors.Is(err, ErrAmbiguousVersion)
}

// IsPostProcess reports whether err was raised after a successful transfer.
func IsPostProcess(err error) bool {
	return errors.Is(err, ErrExtractionFailed) || errors.Is(err, ErrPatchFailed)
}

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
