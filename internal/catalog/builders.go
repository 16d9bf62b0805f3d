package catalog

import (
	"fmt"
	"strings"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// DefaultModuleFragment is the modprobe dry-run line of a disabled module.
const DefaultModuleFragment = "install /bin/true"

// removableMediaPattern matches mount lines for the usual removable media locations.
const removableMediaPattern = `\s/(media|mnt|run/media)/`

// KernelModule builds a control asserting a filesystem kernel module cannot be
// loaded: the dry-run load must print expected (or nothing, when the kernel does
// not know the module) and the module must not be currently loaded.
func KernelModule(id, module, expected string) (types.Control, error) {
	if err := ValidateModuleName(module); err != nil {
		return types.Control{}, fmt.Errorf("control %s: %w", id, err)
	}
	if expected == "" {
		expected = DefaultModuleFragment
	}

	return types.Control{
		ID:          id,
		Title:       fmt.Sprintf("Ensure mounting of %s filesystems is disabled", module),
		Scored:      true,
		Description: fmt.Sprintf("Removing support for the %s filesystem type reduces the local attack surface of the system.", module),
		Probes: []types.Probe{
			{Label: "modprobe", Command: "modprobe -n -v " + module},
			{Label: "lsmod", Command: "lsmod | grep -w " + module},
		},
		Rule: types.Rule{Kind: types.RuleAll, Rules: []types.Rule{
			types.Rule{Kind: types.RuleContains, Expected: expected}.On(0),
			types.Rule{Kind: types.RuleEmpty}.On(1),
		}},
	}, nil
}

// MountOption builds a control asserting every mount of mountpoint carries option.
// A mountpoint that is not separately mounted prints nothing and passes.
func MountOption(id, mountpoint, option string) (types.Control, error) {
	if err := ValidateMountPoint(mountpoint); err != nil {
		return types.Control{}, fmt.Errorf("control %s: %w", id, err)
	}
	if err := validateMountOption(option); err != nil {
		return types.Control{}, fmt.Errorf("control %s: %w", id, err)
	}

	return types.Control{
		ID:          id,
		Title:       fmt.Sprintf("Ensure %s option set on %s partition", option, mountpoint),
		Scored:      true,
		Description: fmt.Sprintf("The %s mount option must be set on %s.", option, mountpoint),
		Probes: []types.Probe{{
			Label:   "mount",
			Command: fmt.Sprintf(`mount | grep -E '\s%s\s' | grep -v %s`, grepMountPoint(mountpoint), option),
		}},
		Rule: types.Rule{Kind: types.RuleEmpty},
	}, nil
}

// Partition builds a control asserting mountpoint lives on its own partition.
// With references the mount line must belong to an accepted layout; without them
// any mount of the mountpoint is accepted. A reference is a complete line as
// mount prints it, options included: the trimmed mount output must be a
// substring of one reference.
func Partition(id, mountpoint string, references []string) (types.Control, error) {
	if err := ValidateMountPoint(mountpoint); err != nil {
		return types.Control{}, fmt.Errorf("control %s: %w", id, err)
	}

	rule := types.Rule{Kind: types.RuleOutput}
	if len(references) > 0 {
		rule = types.Rule{Kind: types.RuleMember, References: append([]string(nil), references...)}
	}

	return types.Control{
		ID:          id,
		Title:       "Ensure separate partition exists for " + mountpoint,
		Scored:      true,
		Description: fmt.Sprintf("A separate partition for %s allows mount options to be restricted independently of /.", mountpoint),
		Probes: []types.Probe{{
			Label:   "mount",
			Command: fmt.Sprintf(`mount | grep -E '\s%s\s'`, grepMountPoint(mountpoint)),
		}},
		Rule: rule,
	}, nil
}

// RemovableMedia builds a control asserting every removable media mount carries option.
func RemovableMedia(id, option string) (types.Control, error) {
	if err := validateMountOption(option); err != nil {
		return types.Control{}, fmt.Errorf("control %s: %w", id, err)
	}

	return types.Control{
		ID:          id,
		Title:       fmt.Sprintf("Ensure %s option set on removable media partitions", option),
		Scored:      false,
		Description: fmt.Sprintf("Removable media mounts must carry the %s option.", option),
		Probes: []types.Probe{{
			Label:   "mount",
			Command: fmt.Sprintf(`mount | grep -E '%s'`, removableMediaPattern),
		}},
		Rule: types.Rule{Kind: types.RuleUniform, Token: option},
	}, nil
}

// expandKernel substitutes the {{kernel}} placeholder in a module pattern.
// A pattern needing the kernel release when it is unknown falls back to the
// default fragment.
func expandKernel(pattern, kernel string) (string, bool) {
	if !strings.Contains(pattern, KernelPlaceholder) {
		return pattern, true
	}
	if kernel == "" {
		return DefaultModuleFragment, false
	}
	return strings.ReplaceAll(pattern, KernelPlaceholder, kernel), true
}

// KernelPlaceholder is replaced by the running kernel release in module patterns.
const KernelPlaceholder = "{{kernel}}"
