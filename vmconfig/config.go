package vmconfig

import (
	"fmt"

	"github.com/BrianJOC/nspawn-vm-prep/params"
)

// Config is the fully resolved, read-only configuration record.
type Config struct {
	Name       string
	Release    string
	SSHD       bool
	SSHDPort   int
	SSHKeyPath string
	Graphics   bool
	Display    int
	Desktop    string
	Geometry   string
	Password   string
	Playbook   string
}

// VNCPort returns the TCP port served for the chosen display.
func (c Config) VNCPort() int {
	return VNCBasePort + c.Display
}

// SessionName maps the desktop choice to its xsession name.
func (c Config) SessionName() (string, error) {
	switch c.Desktop {
	case DesktopIceWM:
		return "icewm-session", nil
	case DesktopXfce:
		return "xfce", nil
	default:
		return "", fmt.Errorf("vmconfig: no session for desktop %q", c.Desktop)
	}
}

// Packages lists the extra packages debootstrap must include.
func (c Config) Packages() []string {
	// dbus for machinectl login, systemd for machinectl start.
	pkgs := []string{"dbus", "systemd", "sudo"}
	if c.Graphics {
		pkgs = append(pkgs, "tigervnc-standalone-server", "dbus-x11")
		switch c.Desktop {
		case DesktopIceWM:
			pkgs = append(pkgs, "icewm", "xterm")
		case DesktopXfce:
			pkgs = append(pkgs, "xfce4", "xfce4-terminal")
		}
	}
	// The ansible chroot connection runs modules with the root's python.
	if c.Playbook != "" {
		pkgs = append(pkgs, "python3")
	}
	return pkgs
}

// Builder accumulates resolved values in table order.
type Builder struct {
	cfg  Config
	seen map[string]struct{}
}

// NewBuilder starts from the fallback values dependent parameters keep when
// they are skipped.
func NewBuilder() *Builder {
	b := &Builder{seen: make(map[string]struct{})}
	for _, p := range Params() {
		v, err := params.Parse(p.Spec, "")
		if err != nil {
			panic(fmt.Sprintf("vmconfig: default for %s does not parse: %v", p.Spec.Name, err))
		}
		p.assign(b, v)
	}
	return b
}

// Set records the value for a parameter.
func (b *Builder) Set(p Param, v params.Value) {
	p.assign(b, v)
	b.seen[p.Spec.Name] = struct{}{}
}

// Resolved reports whether Set has been called for name.
func (b *Builder) Resolved(name string) bool {
	_, ok := b.seen[name]
	return ok
}

// Applies reports whether p should be resolved given the values so far.
func (b *Builder) Applies(p Param) bool {
	switch p.DependsOn {
	case "":
		return true
	case NameSSHD:
		return b.cfg.SSHD
	case NameGraphics:
		return b.cfg.Graphics
	default:
		return false
	}
}

// Build returns a copy of the accumulated record.
func (b *Builder) Build() Config {
	return b.cfg
}
