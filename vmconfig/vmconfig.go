// Package vmconfig defines the container parameter table and the resolved
// configuration record handed to the provisioning phases.
package vmconfig

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/BrianJOC/nspawn-vm-prep/params"
)

// Parameter names double as override keys.
const (
	NameVM       = "VMNAME"
	NameRelease  = "VMRELEASE"
	NameSSHD     = "VMSSHD"
	NameSSHDPort = "VMSSHDPORT"
	NameSSHKey   = "VMSSHKEY"
	NameGraphics = "VMGRAPHICS"
	NameDisplay  = "VMDISPLAY"
	NameDesktop  = "VMDESKTOP"
	NameGeometry = "VMGEOMETRY"
	NamePassword = "VMPASS"
	NamePlaybook = "VMPLAYBOOK"
)

const (
	DesktopIceWM = "icewm"
	DesktopXfce  = "xfce4"

	ReleaseStable  = "stable"
	ReleaseTesting = "testing"

	// VNCBasePort is added to the display index to obtain the VNC TCP port.
	VNCBasePort = 5900
)

// Fallback values for dependent parameters that were never asked.
const (
	DefaultSSHDPort = 2022
	DefaultDisplay  = 1
	DefaultDesktop  = DesktopIceWM
	DefaultGeometry = "1280x720"
)

var geometryPattern = regexp.MustCompile(`^[1-9][0-9]*x[1-9][0-9]*$`)

// Param couples a spec with its position in the dependency chain.
type Param struct {
	Spec params.Spec
	// DependsOn names the boolean parameter that must be true for this one to
	// be resolved. Empty means always resolved.
	DependsOn string
	assign    func(*Builder, params.Value)
}

// Params returns the ordered parameter table. Every DependsOn refers to a
// boolean that appears earlier in the list.
func Params() []Param {
	return []Param{
		{
			Spec: params.Spec{
				Name:    NameVM,
				Prompt:  "Give your VM a name.",
				Default: "vm1",
				Kind:    params.KindString,
				Rules:   "hostname_rfc1123",
			},
			assign: func(b *Builder, v params.Value) { b.cfg.Name = v.Str },
		},
		{
			Spec: params.Spec{
				Name:    NameRelease,
				Prompt:  "Debian release",
				Default: ReleaseStable,
				Kind:    params.KindEnum,
				Choices: []string{ReleaseStable, ReleaseTesting},
			},
			assign: func(b *Builder, v params.Value) { b.cfg.Release = v.Str },
		},
		{
			Spec: params.Spec{
				Name:    NameSSHD,
				Prompt:  "Install SSH server?",
				Default: false,
				Kind:    params.KindBoolean,
			},
			assign: func(b *Builder, v params.Value) { b.cfg.SSHD = v.Bool },
		},
		{
			Spec: params.Spec{
				Name:    NameSSHDPort,
				Prompt:  "SSH server port",
				Default: DefaultSSHDPort,
				Kind:    params.KindInteger,
				Rules:   "min=1,max=65535",
			},
			DependsOn: NameSSHD,
			assign:    func(b *Builder, v params.Value) { b.cfg.SSHDPort = v.Int },
		},
		{
			Spec: params.Spec{
				Name:    NameSSHKey,
				Prompt:  "SSH key pair path for the VM user (generated when missing, empty to skip)",
				Default: "",
				Kind:    params.KindString,
			},
			DependsOn: NameSSHD,
			assign:    func(b *Builder, v params.Value) { b.cfg.SSHKeyPath = v.Str },
		},
		{
			Spec: params.Spec{
				Name:    NameGraphics,
				Prompt:  "Should we install a graphical environment?",
				Default: false,
				Kind:    params.KindBoolean,
			},
			assign: func(b *Builder, v params.Value) { b.cfg.Graphics = v.Bool },
		},
		{
			Spec: params.Spec{
				Name:    NameDisplay,
				Prompt:  "VNC display, corresponds to TCP port: 1 -> 5901, 2 -> 5902",
				Default: DefaultDisplay,
				Kind:    params.KindInteger,
				Rules:   fmt.Sprintf("min=0,max=%d", 65535-VNCBasePort),
			},
			DependsOn: NameGraphics,
			assign:    func(b *Builder, v params.Value) { b.cfg.Display = v.Int },
		},
		{
			Spec: params.Spec{
				Name:    NameDesktop,
				Prompt:  "Desktop environment",
				Default: DefaultDesktop,
				Kind:    params.KindEnum,
				Choices: []string{DesktopIceWM, DesktopXfce},
			},
			DependsOn: NameGraphics,
			assign:    func(b *Builder, v params.Value) { b.cfg.Desktop = v.Str },
		},
		{
			Spec: params.Spec{
				Name:    NameGeometry,
				Prompt:  "VNC display resolution",
				Default: DefaultGeometry,
				Kind:    params.KindString,
				Check: func(v params.Value) error {
					if !geometryPattern.MatchString(v.Str) {
						return errors.New("Invalid geometry (want WIDTHxHEIGHT)")
					}
					return nil
				},
			},
			DependsOn: NameGraphics,
			assign:    func(b *Builder, v params.Value) { b.cfg.Geometry = v.Str },
		},
		{
			Spec: params.Spec{
				Name:    NamePassword,
				Prompt:  "User password",
				Default: "debian",
				Kind:    params.KindString,
				Secret:  true,
				Check: func(v params.Value) error {
					if strings.ContainsAny(v.Str, "\r\n") {
						return errors.New("Password must be a single line")
					}
					return nil
				},
			},
			assign: func(b *Builder, v params.Value) { b.cfg.Password = v.Str },
		},
		{
			Spec: params.Spec{
				Name:    NamePlaybook,
				Prompt:  "Ansible playbook to apply to the VM root (empty to skip)",
				Default: "",
				Kind:    params.KindString,
			},
			assign: func(b *Builder, v params.Value) { b.cfg.Playbook = v.Str },
		},
	}
}

// Lookup finds a parameter by name.
func Lookup(name string) (Param, bool) {
	for _, p := range Params() {
		if p.Spec.Name == name {
			return p, true
		}
	}
	return Param{}, false
}
