//go:build linux

package sysdetect

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/v4/host"
)

// DefaultOSReleasePath is the os-release file consulted for the codename.
const DefaultOSReleasePath = "/etc/os-release"

// LinuxDetector implements Detector for Linux systems using gopsutil.
type LinuxDetector struct {
	// OSReleasePath overrides DefaultOSReleasePath.
	OSReleasePath string
}

// NewDetector returns a LinuxDetector for Linux systems.
func NewDetector() Detector {
	return &LinuxDetector{OSReleasePath: DefaultOSReleasePath}
}

// DetectDistro returns the platform ID and version via gopsutil.
func (d *LinuxDetector) DetectDistro() (string, string, error) {
	info, err := host.Info()
	if err != nil {
		return "", "", err
	}
	if info.Platform == "" {
		return "", "", fmt.Errorf("platform not reported")
	}
	return info.Platform, info.PlatformVersion, nil
}

// DetectCodename reads VERSION_CODENAME, falling back to UBUNTU_CODENAME.
func (d *LinuxDetector) DetectCodename() (string, error) {
	return readCodename(d.OSReleasePath)
}

// DetectKernel returns the kernel release and hostname via gopsutil.
func (d *LinuxDetector) DetectKernel() (string, string, error) {
	info, err := host.Info()
	if err != nil {
		return "", "", err
	}
	return info.KernelVersion, info.Hostname, nil
}

func readCodename(path string) (string, error) {
	if path == "" {
		path = DefaultOSReleasePath
	}
	fields, err := godotenv.Read(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	for _, key := range []string{"VERSION_CODENAME", "UBUNTU_CODENAME"} {
		if v := strings.TrimSpace(fields[key]); v != "" {
			return v, nil
		}
	}
	return "", nil
}
