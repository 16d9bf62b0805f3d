package types

// Reference distribution supported by the built-in catalogue.
const (
	TargetDistroID      = "ubuntu"
	TargetDistroVersion = "22.04"
)

// OSDescriptor holds the host identity consumed by the compatibility gate.
type OSDescriptor struct {
	// ID is the distribution identifier (e.g., "ubuntu", "fedora").
	ID string `json:"id"`

	// Version is the distribution version (e.g., "22.04").
	Version string `json:"version"`

	// Codename is the release codename (e.g., "jammy").
	Codename string `json:"codename,omitempty"`

	// Kernel is the running kernel release (e.g., "5.15.0-91-generic").
	Kernel string `json:"kernel,omitempty"`

	// Hostname is the system hostname.
	Hostname string `json:"hostname,omitempty"`
}

// DisplayName renders the descriptor the way the run banner shows it,
// e.g. "Ubuntu (jammy) 22.04".
func (d OSDescriptor) DisplayName() string {
	name := d.ID
	if name != "" {
		name = upperFirst(name)
	}
	if d.Codename != "" {
		name += " (" + d.Codename + ")"
	}
	if d.Version != "" {
		name += " " + d.Version
	}
	return name
}

func upperFirst(s string) string {
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
