package sysdetect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "OSTYPE", EnvKey("os_type"))
	assert.Equal(t, "OSVERSION", EnvKey("os_version"))
	assert.Equal(t, "OSCODENAME", EnvKey("os_codename"))
}

func TestWriteEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	desc := types.OSDescriptor{ID: "ubuntu", Version: "22.04", Codename: "jammy", Kernel: "5.15.0"}

	require.NoError(t, WriteEnvFile(path, desc))

	got, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"OSTYPE":     "ubuntu",
		"OSVERSION":  "22.04",
		"OSCODENAME": "jammy",
	}, got)
}

func TestWriteEnvFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STALE=1\n"), 0o644))

	require.NoError(t, WriteEnvFile(path, types.OSDescriptor{ID: "fedora", Version: "39"}))

	got, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.NotContains(t, got, "STALE")
	assert.Equal(t, "fedora", got["OSTYPE"])
	assert.Equal(t, "39", got["OSVERSION"])
	assert.Equal(t, "", got["OSCODENAME"])
}

func TestWriteEnvFile_Error(t *testing.T) {
	err := WriteEnvFile(filepath.Join(t.TempDir(), "missing", ".env"), types.OSDescriptor{ID: "ubuntu"})
	require.Error(t, err)
}
