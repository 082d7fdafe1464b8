// Package rootfs injects configuration files into a bootstrapped container
// root and writes the host-side nspawn unit.
package rootfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SSHDPortFile is the sshd drop-in written relative to the root.
const SSHDPortFile = "etc/ssh/sshd_config.d/custom_port.conf"

// Root is a container root directory on the host.
type Root struct {
	dir string
}

// New wraps dir. The directory must exist.
func New(dir string) (*Root, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, ValidationError{Reason: "root directory is required"}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, WriteError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, ValidationError{Reason: dir + " is not a directory"}
	}
	return &Root{dir: dir}, nil
}

// Dir returns the root directory.
func (r *Root) Dir() string {
	return r.dir
}

// Path resolves rel inside the root.
func (r *Root) Path(rel string) string {
	return filepath.Join(r.dir, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
}

// WriteHostname writes etc/hostname with a trailing newline.
func (r *Root) WriteHostname(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ValidationError{Reason: "hostname is required"}
	}
	return r.write("etc/hostname", name+"\n", 0o644)
}

// WriteSudoer grants user full sudo through etc/sudoers.d/USER.
func (r *Root) WriteSudoer(user string) (string, error) {
	if strings.TrimSpace(user) == "" || strings.ContainsAny(user, "/ ") {
		return "", ValidationError{Reason: fmt.Sprintf("invalid user %q", user)}
	}
	return r.write("etc/sudoers.d/"+user, user+" ALL=(ALL:ALL) ALL", 0o440)
}

// WriteSSHDPort writes the sshd port drop-in, creating its directory.
func (r *Root) WriteSSHDPort(port int) (string, error) {
	if port < 1 || port > 65535 {
		return "", ValidationError{Reason: fmt.Sprintf("port %d out of range", port)}
	}
	return r.write(SSHDPortFile, fmt.Sprintf("Port %d", port), 0o644)
}

// AppendHosts maps 127.0.1.1 to name in etc/hosts.
func (r *Root) AppendHosts(name string) (string, error) {
	path := r.Path("etc/hosts")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", WriteError{Path: path, Err: err}
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "127.0.1.1\t%s", name); err != nil {
		return "", WriteError{Path: path, Err: err}
	}
	return path, nil
}

// UnitPath returns where the nspawn unit for machine lives in nspawnDir.
func UnitPath(nspawnDir, machine string) string {
	return filepath.Join(nspawnDir, machine+".nspawn")
}

// UnitContents renders the nspawn unit.
func UnitContents(privateUsers string) string {
	return fmt.Sprintf("[Exec]\nPrivateUsers=%s\n\n[Network]\nVirtualEthernet=no\n", privateUsers)
}

// WriteUnit writes the nspawn unit for machine, creating nspawnDir.
func WriteUnit(nspawnDir, machine, privateUsers string) (string, error) {
	if err := os.MkdirAll(nspawnDir, 0o755); err != nil {
		return "", WriteError{Path: nspawnDir, Err: err}
	}
	path := UnitPath(nspawnDir, machine)
	if err := os.WriteFile(path, []byte(UnitContents(privateUsers)), 0o644); err != nil {
		return "", WriteError{Path: path, Err: err}
	}
	return path, nil
}

func (r *Root) write(rel, contents string, mode os.FileMode) (string, error) {
	path := r.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, []byte(contents), mode); err != nil {
		return "", WriteError{Path: path, Err: err}
	}
	return path, nil
}
