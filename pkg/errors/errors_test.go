package errors

import (
	"errors"
	"testing"
)

func TestWrapKeepsSentinel(t *testing.T) {
	base := errors.New("connection reset")
	tests := []struct {
		name string
		got  error
		want string
		is   error
	}{
		{"wrap", Wrap(ErrTransferFailed, "GenshinImpact.zip"), "GenshinImpact.zip: transfer failed", ErrTransferFailed},
		{"wrap empty message", Wrap(base, ""), ": connection reset", base},
		{"wrapf", Wrapf(ErrPatchFailed, "apply %s", "data.hdiff"), "apply data.hdiff: patch failed", ErrPatchFailed},
		{"wrapf several args", Wrapf(base, "chunk %s attempt %d", "c1", 3), "chunk c1 attempt 3: connection reset", base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Error() != tt.want {
				t.Errorf("got %q, want %q", tt.got.Error(), tt.want)
			}
			if !errors.Is(tt.got, tt.is) {
				t.Errorf("%v does not wrap %v", tt.got, tt.is)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, "context"); err != nil {
		t.Errorf("Wrap(nil) = %v", err)
	}
	if err := Wrapf(nil, "context %d", 1); err != nil {
		t.Errorf("Wrapf(nil) = %v", err)
	}
}

func TestIsResolution(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"install not found", Wrapf(ErrInstallNotFound, "install %s", "I1"), true},
		{"manifest record", ErrManifestNotFound, true},
		{"manifest unavailable", Wrap(ErrManifestUnavailable, "hk4e.json"), true},
		{"version not found", ErrVersionNotFound, true},
		{"ambiguous version", ErrAmbiguousVersion, true},
		{"transfer failure", ErrTransferFailed, false},
		{"no applicable file", ErrNoApplicableFile, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsResolution(tt.err); got != tt.want {
				t.Errorf("IsResolution(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsPostProcess(t *testing.T) {
	if !IsPostProcess(Wrap(ErrExtractionFailed, "game.zip")) {
		t.Errorf("expected extraction failure to be a post-process error")
	}
	if !IsPostProcess(Wrap(ErrPatchFailed, "data.krdiff")) {
		t.Errorf("expected patch failure to be a post-process error")
	}
	if IsPostProcess(ErrTransferFailed) {
		t.Errorf("transfer failure is not a post-process error")
	}
}
