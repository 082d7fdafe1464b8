// Package vncconfig registers a TigerVNC display for a container user.
package vncconfig

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/BrianJOC/nspawn-vm-prep/utils/hostexec"
)

const usersFile = "/etc/tigervnc/vncserver.users"

// Runner executes shell scripts inside the container.
type Runner interface {
	Run(ctx context.Context, script, stdin string) (stdout string, stderr string, err error)
}

// Settings describes one VNC display.
type Settings struct {
	User     string
	HomeDir  string
	Display  int
	Session  string
	Geometry string
	Password string
}

// ConfigContents renders ~/.vnc/config.
func ConfigContents(s Settings) string {
	return fmt.Sprintf("session=%s\ngeometry=%s\nlocalhost=no\nalwaysshared\n", s.Session, s.Geometry)
}

// Configure registers the display, stores the VNC password and config in
// the user's home and enables the tigervncserver unit. root must act as root
// and user as s.User.
func Configure(ctx context.Context, root, user Runner, s Settings) error {
	if root == nil || user == nil {
		return ValidationError{Reason: "root and user runners are required"}
	}
	if err := s.validate(); err != nil {
		return err
	}
	homeDir := s.HomeDir
	if homeDir == "" {
		homeDir = path.Join("/home", s.User)
	}
	vncDir := path.Join(homeDir, ".vnc")
	passwd := path.Join(vncDir, "passwd")
	unit := fmt.Sprintf("tigervncserver@:%d", s.Display)

	steps := []struct {
		name   string
		runner Runner
		script string
		stdin  string
	}{
		{
			name:   "register display",
			runner: root,
			script: fmt.Sprintf("echo %s >> %s", hostexec.Quote(fmt.Sprintf(":%d=%s", s.Display, s.User)), usersFile),
		},
		{
			name:   "create vnc dir",
			runner: user,
			script: "mkdir -p " + hostexec.Quote(vncDir),
		},
		{
			name:   "vncpasswd",
			runner: user,
			script: "vncpasswd -f > " + hostexec.Quote(passwd),
			stdin:  s.Password + "\n",
		},
		{
			name:   "chmod passwd",
			runner: root,
			script: "chmod 600 " + hostexec.Quote(passwd),
		},
		{
			name:   "write config",
			runner: user,
			script: "cat > " + hostexec.Quote(path.Join(vncDir, "config")),
			stdin:  ConfigContents(s),
		},
		{
			name:   "enable " + unit,
			runner: root,
			script: "systemctl enable " + hostexec.Quote(unit),
		},
	}

	for _, step := range steps {
		if _, stderr, err := step.runner.Run(ctx, step.script, step.stdin); err != nil {
			return CommandError{Step: step.name, Err: err, Stderr: stderr}
		}
	}
	return nil
}

func (s Settings) validate() error {
	switch {
	case strings.TrimSpace(s.User) == "":
		return ValidationError{Reason: "user is required"}
	case s.Display < 0:
		return ValidationError{Reason: "display must not be negative"}
	case strings.TrimSpace(s.Session) == "":
		return ValidationError{Reason: "session is required"}
	case strings.TrimSpace(s.Geometry) == "":
		return ValidationError{Reason: "geometry is required"}
	case strings.ContainsAny(s.Password, "\n"):
		return ValidationError{Reason: "password must be a single line"}
	}
	return nil
}
