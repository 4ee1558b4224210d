// Package autostart registers `jobdash serve` to start at login.
package autostart

import (
	"errors"
	"runtime"
)

const (
	serviceName = "jobdash.service"
	taskName    = "JobdashConsole"
)

var ErrUnsupported = errors.New("autostart is not supported on " + runtime.GOOS)

type AutoStarter interface {
	Install(execPath string) error
	Uninstall() error
	IsInstalled() (bool, error)
}

func New() AutoStarter {
	switch runtime.GOOS {
	case "windows":
		return &WindowsAutoStarter{}
	case "linux":
		return &LinuxAutoStarter{}
	default:
		return &UnsupportedAutoStarter{}
	}
}

type UnsupportedAutoStarter struct{}

func (u *UnsupportedAutoStarter) Install(_ string) error {
	return ErrUnsupported
}

func (u *UnsupportedAutoStarter) Uninstall() error {
	return ErrUnsupported
}

func (u *UnsupportedAutoStarter) IsInstalled() (bool, error) {
	return false, nil
}
