// Package sysdetect identifies the host distribution and decides whether the
// benchmark catalogue applies to it.
package sysdetect

import (
	"fmt"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/log"
	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// Detector abstracts platform-specific host detection.
// Each supported OS provides an implementation via build tags.
type Detector interface {
	// DetectDistro returns the distribution ID and version (e.g., "ubuntu", "22.04").
	DetectDistro() (id, version string, err error)

	// DetectCodename returns the release codename (e.g., "jammy").
	DetectCodename() (string, error)

	// DetectKernel returns the running kernel release and the hostname.
	DetectKernel() (kernel, hostname string, err error)
}

// Detect coordinates layered host detection using the provided detector.
//   - Layer 1: distribution ID and version (must succeed)
//   - Layer 2: codename (warning on failure, continues)
//   - Layer 3: kernel release and hostname (warning on failure, continues)
//
// Returns the descriptor, a list of non-fatal warnings, and an error only when
// the distribution cannot be identified.
func Detect(d Detector) (types.OSDescriptor, []string, error) {
	var desc types.OSDescriptor
	var warnings []string

	id, version, err := d.DetectDistro()
	if err != nil {
		return desc, nil, fmt.Errorf("distribution detection failed: %w", err)
	}
	desc.ID, desc.Version = id, version

	codename, err := d.DetectCodename()
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("codename detection failed: %v", err))
	} else {
		desc.Codename = codename
	}

	kernel, hostname, err := d.DetectKernel()
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("kernel detection failed: %v", err))
	} else {
		desc.Kernel, desc.Hostname = kernel, hostname
	}

	log.Logger().Info().
		Str("id", desc.ID).
		Str("version", desc.Version).
		Str("codename", desc.Codename).
		Str("kernel", desc.Kernel).
		Msg("host detected")

	return desc, warnings, nil
}
