package sysdetect

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// DefaultEnvFile is where the host identity is written for downstream tooling.
const DefaultEnvFile = ".env"

// EnvKey derives an environment key from a field name: upper-cased with
// underscores removed ("os_type" becomes "OSTYPE").
func EnvKey(field string) string {
	return strings.ReplaceAll(strings.ToUpper(field), "_", "")
}

// EnvValues returns the host identity keyed the way the .env file stores it.
func EnvValues(desc types.OSDescriptor) map[string]string {
	return map[string]string{
		EnvKey("os_type"):     desc.ID,
		EnvKey("os_version"):  desc.Version,
		EnvKey("os_codename"): desc.Codename,
	}
}

// WriteEnvFile writes OSTYPE, OSVERSION and OSCODENAME to path, replacing the file.
func WriteEnvFile(path string, desc types.OSDescriptor) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Write(EnvValues(desc), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
