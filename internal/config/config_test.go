package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/catalog"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

func writeYAML(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfigYAML = `report_file: /var/tmp/cis.txt
truncate: category
probe_timeout: 30s
target: {id: ubuntu, version: "22.04"}
module_patterns:
  cramfs: "insmod /lib/modules/{{kernel}}/kernel/fs/cramfs/cramfs.ko"
partitions:
  /home: ["/dev/sdb1 on /home type ext4 (rw,nodev,relatime)"]
controls:
  - category: "1.4 Boot Settings"
    id: "1.4.9"
    title: "Ensure fstab is readable"
    scored: true
    levels: ["Level 1 - Server"]
    probes: [{label: grep, command: "grep -c x /etc/fstab"}]
    rule: {kind: output}
  - category: "9.1 Site Policy"
    id: "9.1.1"
    title: "Ensure tmp is mounted with nodev"
    probes:
      - label: mount
        command: "mount | grep -E '\\s/tmp\\s'"
    rule:
      kind: all
      rules:
        - {kind: output, probe: 0}
        - {kind: uniform, token: nodev}
`

func TestLoad_ValidFile(t *testing.T) {
	path := writeYAML(t, t.TempDir(), "cisbench.yaml", validConfigYAML)

	cfg, warnings, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "/var/tmp/cis.txt", cfg.ReportFile)
	assert.Equal(t, "category", cfg.Truncate)
	assert.Equal(t, 30*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, Target{ID: "ubuntu", Version: "22.04"}, cfg.Target)
	assert.Equal(t, "insmod /lib/modules/{{kernel}}/kernel/fs/cramfs/cramfs.ko", cfg.ModulePatterns["cramfs"])
	assert.Equal(t, []string{"/dev/sdb1 on /home type ext4 (rw,nodev,relatime)"}, cfg.Partitions["/home"])

	require.Len(t, cfg.Controls, 2)
	assert.Equal(t, "1.4 Boot Settings", cfg.Controls[0].Category)
	assert.Equal(t, "1.4.9", cfg.Controls[0].ID)
	assert.True(t, cfg.Controls[0].Scored)
	assert.Equal(t, types.RuleOutput, cfg.Controls[0].Rule.Kind)
	require.Len(t, cfg.Controls[1].Rule.Rules, 2)
	require.NotNil(t, cfg.Controls[1].Rule.Rules[0].Probe)
	assert.Equal(t, 0, *cfg.Controls[1].Rule.Rules[0].Probe)
}

func TestParse_EmptyDocumentKeepsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, DefaultReportFile, cfg.ReportFileOrDefault())
	assert.Equal(t, time.Duration(0), cfg.ProbeTimeout)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{"bad yaml", "report_file: [", "failed to parse YAML"},
		{"unknown key", "reportfile: x.txt", "field reportfile not found"},
		{"truncate mode", "truncate: always", "Truncate must be one of: run category"},
		{"negative timeout", "probe_timeout: -5s", "ProbeTimeout must not be negative"},
		{"integer timeout", "probe_timeout: 30", "failed to parse YAML"},
		{"target without version", "target: {id: debian}", "Target.Version is required when ID is set"},
		{"empty module pattern", "module_patterns: {cramfs: \"\"}", "is required"},
		{"bad module name", "module_patterns: {\"cramfs;id\": x}", "invalid kernel module name"},
		{"relative mount point", "partitions: {home: [x]}", "mount point must be absolute"},
		{"empty partition refs", "partitions: {/home: []}", "must have at least 1 entries"},
		{
			"bad control id",
			"controls: [{category: \"1.4 Boot\", id: \"1.4.a\", title: abc, probes: [{label: l, command: lsmod}], rule: {kind: empty}}]",
			"must be dotted numbers",
		},
		{
			"missing category",
			"controls: [{id: \"1.4.9\", title: abc, probes: [{label: l, command: lsmod}], rule: {kind: empty}}]",
			"Category is required",
		},
		{
			"no probes",
			"controls: [{category: \"1.4 Boot\", id: \"1.4.9\", title: abc, rule: {kind: empty}}]",
			"Probes is required",
		},
		{
			"bad level",
			"controls: [{category: \"1.4 Boot\", id: \"1.4.9\", title: abc, levels: [\"Level 3\"], probes: [{label: l, command: lsmod}], rule: {kind: empty}}]",
			`invalid level "Level 3"`,
		},
		{
			"writing probe",
			"controls: [{category: \"1.4 Boot\", id: \"1.4.9\", title: abc, probes: [{label: l, command: \"lsmod > /tmp/x\"}], rule: {kind: empty}}]",
			"would write to disk",
		},
		{
			"probe hidden behind xargs",
			"controls: [{category: \"1.4 Boot\", id: \"1.4.9\", title: abc, probes: [{label: l, command: \"echo /tmp/v | xargs rm -f grep\"}], rule: {kind: empty}}]",
			`"rm" not in read-only allowlist`,
		},
		{
			"unknown rule kind",
			"controls: [{category: \"1.4 Boot\", id: \"1.4.9\", title: abc, probes: [{label: l, command: lsmod}], rule: {kind: regex}}]",
			`unknown rule kind "regex"`,
		},
		{
			"rule probe out of range",
			"controls: [{category: \"1.4 Boot\", id: \"1.4.9\", title: abc, probes: [{label: l, command: lsmod}], rule: {kind: empty, probe: 1}}]",
			"selects probe 1",
		},
		{
			"duplicate ids",
			"controls:\n" +
				"  - {category: \"1.4 Boot\", id: \"1.4.9\", title: abc, probes: [{label: l, command: lsmod}], rule: {kind: empty}}\n" +
				"  - {category: \"1.4 Boot\", id: \"1.4.9\", title: def, probes: [{label: l, command: lsmod}], rule: {kind: empty}}\n",
			`duplicate control ID "1.4.9"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "error should wrap ErrInvalidConfig: %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
	assert.False(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoad_InvalidFileNamesPath(t *testing.T) {
	path := writeYAML(t, t.TempDir(), "bad.yaml", "truncate: always\n")
	_, _, err := Load(path)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), path+": "))
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoad_TooLarge(t *testing.T) {
	path := writeYAML(t, t.TempDir(), "big.yaml", "# "+strings.Repeat("x", int(MaxConfigBytes))+"\n")
	_, _, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoad_Directory(t *testing.T) {
	_, _, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-regular")
}

func TestCheckPermissions(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, "cisbench.yaml", "truncate: run\n")

	assert.Empty(t, CheckPermissions(path))

	require.NoError(t, os.Chmod(path, 0o666))
	warnings := CheckPermissions(path)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "world-writable")
	assert.Contains(t, warnings[1], "group-writable")

	link := filepath.Join(dir, "link.yaml")
	require.NoError(t, os.Symlink(path, link))
	warnings = CheckPermissions(link)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "symlink")
}

func TestLoad_ReturnsPermissionWarnings(t *testing.T) {
	path := writeYAML(t, t.TempDir(), "cisbench.yaml", "truncate: run\n")
	require.NoError(t, os.Chmod(path, 0o620))

	_, warnings, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
}

func TestConfig_Patterns(t *testing.T) {
	cfg, err := Parse([]byte(validConfigYAML))
	require.NoError(t, err)

	p := cfg.Patterns("5.15.0-91-generic")
	assert.Equal(t, "5.15.0-91-generic", p.Kernel)
	assert.Equal(t, cfg.ModulePatterns, p.ModulePatterns)
	assert.Equal(t, cfg.Partitions, p.Partitions)
}

func TestConfig_Apply(t *testing.T) {
	cfg, err := Parse([]byte(validConfigYAML))
	require.NoError(t, err)

	reg, err := catalog.Builtin(cfg.Patterns("5.15.0-91-generic"))
	require.NoError(t, err)
	require.NoError(t, cfg.Apply(reg))

	boot, ok := reg.Category(catalog.BootSettings)
	require.True(t, ok)
	assert.Equal(t, "1.4.9", boot.Controls[len(boot.Controls)-1].ID)

	cats := reg.Categories()
	assert.Equal(t, "9.1 Site Policy", cats[len(cats)-1].Title)

	_, title, ok := reg.Lookup("9.1.1")
	require.True(t, ok)
	assert.Equal(t, "9.1 Site Policy", title)
}

func TestConfig_ApplyRejectsBuiltinCollision(t *testing.T) {
	cfg, err := Parse([]byte(`controls:
  - {category: "1.4 Boot Settings", id: "1.4.1", title: "Shadowed", probes: [{label: l, command: lsmod}], rule: {kind: empty}}
`))
	require.NoError(t, err)

	reg, err := catalog.Builtin(catalog.Patterns{})
	require.NoError(t, err)

	err = cfg.Apply(reg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.True(t, errors.Is(err, catalog.ErrDuplicateControl))
}
