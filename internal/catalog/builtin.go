package catalog

import (
	"errors"
	"fmt"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/log"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// Built-in category titles.
const (
	FilesystemConfiguration = "1.1 Filesystem Configuration"
	PackageManagerConfig    = "1.2 Package Manager Configuration"
	FilesystemIntegrity     = "1.3 Filesystem Integrity Checking"
	BootSettings            = "1.4 Boot Settings"
)

var (
	level1 = []string{"Level 1 - Server", "Level 1 - Workstation"}
	level2 = []string{"Level 2 - Server", "Level 2 - Workstation"}
)

// Patterns carries the host-specific expectations that parameterize the catalogue.
type Patterns struct {
	// ModulePatterns maps a kernel module to the fragment its dry-run load must
	// print. Values may contain the {{kernel}} placeholder.
	ModulePatterns map[string]string

	// Partitions maps a mount point to the accepted mount lines for its partition,
	// each written in full as mount prints it.
	Partitions map[string][]string

	// Kernel is the running kernel release used to expand {{kernel}}.
	Kernel string
}

func (p Patterns) moduleFragment(module string) string {
	pattern, ok := p.ModulePatterns[module]
	if !ok || pattern == "" {
		return DefaultModuleFragment
	}
	expanded, ok := expandKernel(pattern, p.Kernel)
	if !ok {
		log.Warnf("kernel release unknown; %s falls back to %q", module, DefaultModuleFragment)
	}
	return expanded
}

// builder accumulates controls and the first error of each builder call.
type builder struct {
	controls []types.Control
	errs     []error
}

func (b *builder) add(c types.Control, err error, levels []string) {
	if err != nil {
		b.errs = append(b.errs, err)
		return
	}
	c.Levels = levels
	b.controls = append(b.controls, c)
}

func (b *builder) control(c types.Control, levels []string) {
	b.add(c, nil, levels)
}

// Builtin builds the registry for section 1 of the CIS Distribution Independent
// Linux benchmark v2.0.0.
func Builtin(p Patterns) (*Registry, error) {
	fs := filesystemConfiguration(p)
	pm := packageManagerConfiguration()
	fi := filesystemIntegrity()
	bs := bootSettings()

	var errs []error
	for _, b := range []*builder{fs, pm, fi, bs} {
		errs = append(errs, b.errs...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("building catalogue: %w", err)
	}

	return NewRegistry(
		types.Category{Title: FilesystemConfiguration, Controls: fs.controls},
		types.Category{Title: PackageManagerConfig, Controls: pm.controls},
		types.Category{Title: FilesystemIntegrity, Controls: fi.controls},
		types.Category{Title: BootSettings, Controls: bs.controls},
	)
}

func filesystemConfiguration(p Patterns) *builder {
	b := &builder{}

	modules := []struct {
		id, name string
		levels   []string
	}{
		{"1.1.1.1", "cramfs", level1},
		{"1.1.1.2", "freevxfs", level1},
		{"1.1.1.3", "jffs2", level1},
		{"1.1.1.4", "hfs", level1},
		{"1.1.1.5", "hfsplus", level1},
		{"1.1.1.6", "squashfs", level1},
		{"1.1.1.7", "udf", level1},
		{"1.1.1.8", "vfat", level2},
	}
	for _, m := range modules {
		c, err := KernelModule(m.id, m.name, p.moduleFragment(m.name))
		b.add(c, err, m.levels)
	}

	partition := func(id, mp string, levels []string) {
		c, err := Partition(id, mp, p.Partitions[mp])
		b.add(c, err, levels)
	}
	option := func(id, mp, opt string) {
		c, err := MountOption(id, mp, opt)
		b.add(c, err, level1)
	}

	partition("1.1.2", "/tmp", level1)
	option("1.1.3", "/tmp", "nodev")
	option("1.1.4", "/tmp", "nosuid")
	option("1.1.5", "/tmp", "noexec")
	partition("1.1.6", "/var", level2)
	partition("1.1.7", "/var/tmp", level2)
	option("1.1.8", "/var/tmp", "nodev")
	option("1.1.9", "/var/tmp", "nosuid")
	option("1.1.10", "/var/tmp", "noexec")
	partition("1.1.11", "/var/log", level2)
	partition("1.1.12", "/var/log/audit", level2)
	partition("1.1.13", "/home", level2)
	option("1.1.14", "/home", "nodev")
	option("1.1.15", "/dev/shm", "nodev")
	option("1.1.16", "/dev/shm", "nosuid")
	option("1.1.17", "/dev/shm", "noexec")

	for i, opt := range []string{"nodev", "nosuid", "noexec"} {
		c, err := RemovableMedia(fmt.Sprintf("1.1.%d", 18+i), opt)
		b.add(c, err, level1)
	}

	b.control(types.Control{
		ID:          "1.1.21",
		Title:       "Ensure sticky bit is set on all world-writable directories",
		Scored:      true,
		Description: "Setting the sticky bit on world writable directories prevents users from deleting or renaming files in that directory that are not owned by them.",
		Probes: []types.Probe{{
			Label:   "find",
			Command: `df --local -P | awk '{if (NR!=1) print $6}' | xargs -I '{}' find '{}' -xdev -type d \( -perm -0002 -a ! -perm -1000 \) 2>/dev/null`,
		}},
		Rule: types.Rule{Kind: types.RuleEmpty},
	}, level1)

	b.control(types.Control{
		ID:          "1.1.22",
		Title:       "Disable Automounting",
		Scored:      true,
		Description: "autofs allows automatic mounting of devices, typically including CD/DVDs and USB drives.",
		Probes:      []types.Probe{{Label: "systemctl", Command: "systemctl is-enabled autofs"}},
		Rule:        types.Rule{Kind: types.RuleMatch, Pattern: `(?m)^\s*enabled\s*$`, Negate: true},
	}, []string{"Level 1 - Server", "Level 2 - Workstation"})

	return b
}

func packageManagerConfiguration() *builder {
	b := &builder{}

	b.control(types.Control{
		ID:          "1.2.1",
		Title:       "Ensure package manager repositories are configured",
		Scored:      false,
		Description: "Systems need to have package manager repositories configured to ensure they receive the latest patches and updates.",
		Probes: []types.Probe{
			{Label: "yum", Command: "yum repolist"},
			{Label: "apt", Command: "apt-cache policy"},
			{Label: "zypper", Command: "zypper repos"},
		},
		Rule: types.Rule{Kind: types.RuleOutput},
	}, level1)

	b.control(types.Control{
		ID:          "1.2.2",
		Title:       "Ensure GPG keys are configured",
		Scored:      false,
		Description: "Most package managers implement GPG key signing to verify package integrity during installation.",
		Probes: []types.Probe{
			{Label: "rpm", Command: `rpm -q gpg-pubkey --qf '%{name}-%{version}-%{release} --> %{summary}\n'`},
			{Label: "apt", Command: "apt-key list"},
			{Label: "zypper", Command: "zypper repos"},
		},
		Rule: types.Rule{Kind: types.RuleOutput},
	}, level1)

	return b
}

func filesystemIntegrity() *builder {
	b := &builder{}

	b.control(types.Control{
		ID:          "1.3.1",
		Title:       "Ensure AIDE is installed",
		Scored:      true,
		Description: "AIDE takes a snapshot of filesystem state including modification times, permissions, and file hashes which can then be used to compare against the current state of the filesystem to detect modifications to the system.",
		Probes: []types.Probe{
			{Label: "rpm", Command: "rpm -q aide"},
			{Label: "dpkg", Command: "dpkg -s aide"},
		},
		Rule: types.Rule{Kind: types.RuleExitZero},
	}, level1)

	enabled := `(?m)^\s*enabled\s*$`
	b.control(types.Control{
		ID:          "1.3.2",
		Title:       "Ensure filesystem integrity is regularly checked",
		Scored:      true,
		Description: "Periodic checking of the filesystem integrity is needed to detect changes to the filesystem.",
		Probes: []types.Probe{
			{Label: "is-enabled aidecheck.service", Command: "systemctl is-enabled aidecheck.service"},
			{Label: "status aidecheck.service", Command: "systemctl status aidecheck.service"},
			{Label: "is-enabled aidecheck.timer", Command: "systemctl is-enabled aidecheck.timer"},
			{Label: "status aidecheck.timer", Command: "systemctl status aidecheck.timer"},
			{Label: "root crontab", Command: "crontab -u root -l | grep aide"},
			{Label: "etc cron", Command: "grep -r aide /etc/cron.* /etc/crontab"},
		},
		Rule: types.Rule{Kind: types.RuleAny, Rules: []types.Rule{
			{Kind: types.RuleAll, Rules: []types.Rule{
				types.Rule{Kind: types.RuleMatch, Pattern: enabled}.On(0),
				types.Rule{Kind: types.RuleMatch, Pattern: enabled}.On(2),
			}},
			types.Rule{Kind: types.RuleOutput}.On(4),
			types.Rule{Kind: types.RuleOutput}.On(5),
		}},
	}, level1)

	return b
}

func bootSettings() *builder {
	b := &builder{}

	// Mode 0400 or 0600, owned by root:root.
	grubPerms := `Access:\s*\(0[46]00/[^)]*\)\s+Uid:\s*\(\s*0/\s*root\)\s+Gid:\s*\(\s*0/\s*root\)`
	b.control(types.Control{
		ID:          "1.4.1",
		Title:       "Ensure permissions on bootloader config are configured",
		Scored:      true,
		Description: "The grub configuration file contains information on boot settings and passwords for unlocking boot options.",
		Probes: []types.Probe{
			{Label: "/boot/grub2/grub.cfg", Command: "stat /boot/grub2/grub.cfg"},
			{Label: "/boot/grub/grub.cfg", Command: "stat /boot/grub/grub.cfg"},
		},
		Rule: types.Rule{Kind: types.RuleMatch, Pattern: grubPerms},
	}, level1)

	b.control(types.Control{
		ID:          "1.4.2",
		Title:       "Ensure bootloader password is set",
		Scored:      true,
		Description: "Setting the boot loader password will require that anyone rebooting the system must enter a password before being able to set command line boot parameters.",
		Probes: []types.Probe{
			{Label: "grub", Command: `grep "^\s*password" /boot/grub/menu.lst`},
			{Label: "grub2_user_cfg", Command: `grep "^\s*GRUB2_PASSWORD" /boot/grub2/user.cfg`},
			{Label: "grub2_superusers", Command: `grep "^\s*set superusers" /boot/grub/grub.cfg`},
			{Label: "grub2_password", Command: `grep "^\s*password" /boot/grub/grub.cfg`},
		},
		Rule: types.Rule{Kind: types.RuleAny, Rules: []types.Rule{
			types.Rule{Kind: types.RuleOutput}.On(0),
			types.Rule{Kind: types.RuleOutput}.On(1),
			{Kind: types.RuleAll, Rules: []types.Rule{
				types.Rule{Kind: types.RuleOutput}.On(2),
				types.Rule{Kind: types.RuleOutput}.On(3),
			}},
		}},
	}, level1)

	b.control(types.Control{
		ID:          "1.4.3",
		Title:       "Ensure authentication required for single user mode",
		Scored:      true,
		Description: "Single user mode is used for recovery when the system detects an issue during boot or by manual selection from the bootloader.",
		Probes:      []types.Probe{{Label: "shadow", Command: `grep ^root:[*\!]: /etc/shadow`}},
		Rule:        types.Rule{Kind: types.RuleEmpty},
	}, level1)

	return b
}
