package sysdetect

import (
	"strings"

	"github.com/augadhverma/cis-benchmarking-checklist/internal/types"
)

// Gate accepts exactly one distribution and version. The whole run is gated:
// either every category runs or none does.
type Gate struct {
	TargetID      string
	TargetVersion string
}

// NewGate returns a Gate for the reference distribution.
func NewGate() Gate {
	return Gate{TargetID: types.TargetDistroID, TargetVersion: types.TargetDistroVersion}
}

// Check reports whether the host matches the target and returns the codename
// to display for it. IDs compare case-insensitively; versions exactly.
func (g Gate) Check(id, version, codename string) (bool, string) {
	if !strings.EqualFold(strings.TrimSpace(id), g.TargetID) || strings.TrimSpace(version) != g.TargetVersion {
		return false, ""
	}
	return true, codename
}
