package autostart

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"
)

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=jobdash admin console
After=network-online.target
Wants=network-online.target

[Service]
ExecStart="{{.ExecPath}}" serve
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`))

type LinuxAutoStarter struct {
	// dir overrides ~/.config/systemd/user
	dir string
}

func writeUnit(w io.Writer, execPath string) error {
	return unitTemplate.Execute(w, map[string]string{"ExecPath": execPath})
}

func (l *LinuxAutoStarter) unitPath() (string, error) {
	dir := l.dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config", "systemd", "user")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(dir, serviceName), nil
}

func (l *LinuxAutoStarter) Install(execPath string) error {
	path, err := l.unitPath()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create unit file: %w", err)
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	if err := writeUnit(f, execPath); err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}

	return systemctl(
		[]string{"daemon-reload"},
		[]string{"enable", serviceName},
		[]string{"start", serviceName},
	)
}

func (l *LinuxAutoStarter) Uninstall() error {
	_ = systemctl([]string{"stop", serviceName})
	_ = systemctl([]string{"disable", serviceName})

	path, err := l.unitPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *LinuxAutoStarter) IsInstalled() (bool, error) {
	path, err := l.unitPath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	return err == nil, nil
}

func systemctl(calls ...[]string) error {
	for _, args := range calls {
		full := append([]string{"--user"}, args...)
		if out, err := exec.Command("systemctl", full...).CombinedOutput(); err != nil {
			return fmt.Errorf("systemctl %v: %w\n%s", full, err, out)
		}
	}
	return nil
}
