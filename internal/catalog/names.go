package catalog

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxNameLength is the maximum allowed length for module names and mount points.
const MaxNameLength = 256

var (
	kernelModulePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	mountOptionPattern  = regexp.MustCompile(`^[a-z0-9_]+$`)
	mountPointPattern   = regexp.MustCompile(`^[a-zA-Z0-9_./-]+$`)
)

// ValidateModuleName checks that a kernel module name is safe to splice into a probe.
func ValidateModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("kernel module name must not be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("kernel module name too long: %d chars (max: %d)", len(name), MaxNameLength)
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("kernel module name %q must not start with '-'", name)
	}
	if !kernelModulePattern.MatchString(name) {
		return fmt.Errorf("invalid kernel module name %q: only alphanumeric, underscores, hyphens allowed", name)
	}
	return nil
}

// ValidateMountPoint checks that a mount point is an absolute, clean path made of
// characters that need no quoting inside a grep -E pattern.
func ValidateMountPoint(mp string) error {
	if mp == "" {
		return fmt.Errorf("mount point must not be empty")
	}
	if len(mp) > MaxNameLength {
		return fmt.Errorf("mount point too long: %d chars (max: %d)", len(mp), MaxNameLength)
	}
	if !filepath.IsAbs(mp) {
		return fmt.Errorf("mount point must be absolute, got %q", mp)
	}
	if filepath.Clean(mp) != mp {
		return fmt.Errorf("mount point %q is not clean (want %q)", mp, filepath.Clean(mp))
	}
	if !mountPointPattern.MatchString(mp) {
		return fmt.Errorf("invalid mount point %q: only alphanumeric, underscores, dots, hyphens, slashes allowed", mp)
	}
	return nil
}

// validateMountOption checks a mount option such as "nodev".
func validateMountOption(opt string) error {
	if !mountOptionPattern.MatchString(opt) {
		return fmt.Errorf("invalid mount option %q", opt)
	}
	return nil
}

// grepMountPoint escapes a validated mount point for use in a grep -E pattern.
func grepMountPoint(mp string) string {
	return strings.ReplaceAll(mp, ".", `\.`)
}
