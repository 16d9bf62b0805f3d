package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MaxConfigBytes is the maximum size of a configuration file (1 MB).
const MaxConfigBytes int64 = 1024 * 1024

// readFileLimited reads a regular file with a bounded read. It opens first and
// then fstats the descriptor so the checked file is the one read.
func readFileLimited(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("config path must not be empty")
	}
	cleaned := filepath.Clean(path)

	f, err := os.Open(cleaned)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot open config %q: %w", cleaned, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat config %q: %w", cleaned, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("refusing to read non-regular file %q (mode: %s)", cleaned, info.Mode().Type())
	}
	if info.Size() > MaxConfigBytes {
		return nil, fmt.Errorf("config %q too large: %d bytes (max: %d)", cleaned, info.Size(), MaxConfigBytes)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading config %q: %w", cleaned, err)
	}
	if int64(len(data)) > MaxConfigBytes {
		return nil, fmt.Errorf("config %q exceeded size limit during read", cleaned)
	}
	return data, nil
}

// CheckPermissions returns warnings when a configuration file could be modified
// by users other than its owner. Declared probes run with the caller's privileges,
// usually root. An empty result means the file is safe.
func CheckPermissions(path string) []string {
	info, err := os.Lstat(path)
	if err != nil {
		return []string{fmt.Sprintf("cannot stat config %q: %v", path, err)}
	}

	var warnings []string
	if info.Mode()&os.ModeSymlink != 0 {
		warnings = append(warnings, fmt.Sprintf("config %q is a symlink; its target's permissions are not checked", path))
		return warnings
	}

	perm := info.Mode().Perm()
	if perm&0o002 != 0 {
		warnings = append(warnings, fmt.Sprintf("config %q is world-writable (%04o); anyone can inject probes", path, perm))
	}
	if perm&0o020 != 0 {
		warnings = append(warnings, fmt.Sprintf("config %q is group-writable (%04o); group members can inject probes", path, perm))
	}

	dir := filepath.Dir(path)
	if dinfo, err := os.Stat(dir); err == nil && dinfo.Mode().Perm()&0o002 != 0 && dinfo.Mode()&os.ModeSticky == 0 {
		warnings = append(warnings, fmt.Sprintf("config directory %q is world-writable without the sticky bit (%04o)", dir, dinfo.Mode().Perm()))
	}
	return warnings
}
