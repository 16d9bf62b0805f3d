//go:build !linux

package sysdetect

import (
	"github.com/shirou/gopsutil/v4/host"
)

// HostDetector implements Detector for non-Linux systems. It reports the
// platform so the compatibility gate can reject it by name.
type HostDetector struct{}

// NewDetector returns a HostDetector for non-Linux systems.
func NewDetector() Detector {
	return &HostDetector{}
}

// DetectDistro returns the platform name and version via gopsutil.
func (d *HostDetector) DetectDistro() (string, string, error) {
	info, err := host.Info()
	if err != nil {
		return "", "", err
	}
	return info.Platform, info.PlatformVersion, nil
}

// DetectCodename returns an empty codename; only Linux distributions carry one.
func (d *HostDetector) DetectCodename() (string, error) {
	return "", nil
}

// DetectKernel returns the kernel release and hostname via gopsutil.
func (d *HostDetector) DetectKernel() (string, string, error) {
	info, err := host.Info()
	if err != nil {
		return "", "", err
	}
	return info.KernelVersion, info.Hostname, nil
}
