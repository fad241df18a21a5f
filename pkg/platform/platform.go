// Package platform describes the host a tool or fixup script is picked for.
package platform

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// OSWindows is the only OS whose executables carry an extension.
const OSWindows = "windows"

// Platform represents a host with OS and Architecture.
type Platform struct {
	OS   string `yaml:"os" json:"os"`
	Arch string `yaml:"arch" json:"arch"`
}

// CurrentPlatform returns the current platform (OS and architecture)
func CurrentPlatform() Platform {
	goos := runtime.GOOS
	if goos == "" {
		goos = "unknown"
	}

	goarch := runtime.GOARCH
	if goarch == "" {
		goarch = "unknown"
	}

	return Platform{
		OS:   NormalizeOS(goos),
		Arch: NormalizeArch(goarch),
	}
}

// String returns a string representation of the platform
func (p Platform) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}

// Executable returns the file name of the executable called name.
func (p Platform) Executable(name string) string {
	if p.OS == OSWindows && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}

// Candidates lists where a platform specific variant of file is looked up
// inside dir, most specific first: dir/<os>-<arch>/file, dir/<os>/file and
// finally dir/file.
func (p Platform) Candidates(dir, file string) []string {
	return []string{
		filepath.Join(dir, p.OS+"-"+p.Arch, file),
		filepath.Join(dir, p.OS, file),
		filepath.Join(dir, file),
	}
}

// NormalizeOS normalizes OS names to a common format
func NormalizeOS(os string) string {
	os = strings.ToLower(os)
	switch os {
	case "win", "win32", "win64":
		return OSWindows
	case "macos", "osx":
		return "darwin"
	default:
		return os
	}
}

// NormalizeArch normalizes architecture names to a common format
func NormalizeArch(arch string) string {
	arch = strings.ToLower(arch)
	switch arch {
	case "x86_64", "x64":
		return "amd64"
	case "x86", "i386", "i686":
		return "386"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}
