// Package debootstrap builds and runs the debootstrap invocation that
// creates a container root filesystem.
package debootstrap

import (
	"context"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/BrianJOC/nspawn-vm-prep/utils/hostexec"
)

const (
	binary         = "debootstrap"
	defaultVariant = "minbase"
)

var (
	versionPattern = regexp.MustCompile(`(\d+\.)+\d+`)
	// --cache-dir first shipped in 1.0.97.
	cacheDirSince = version.Must(version.NewVersion("1.0.97"))
)

// Options describes one bootstrap.
type Options struct {
	Arch     string
	Variant  string
	Include  []string
	CacheDir string
	Release  string
	Target   string
	Mirror   string
}

// DetectVersion runs `debootstrap --version` and extracts the version.
func DetectVersion(ctx context.Context, exec hostexec.Executor) (*version.Version, error) {
	res, err := exec.Run(ctx, hostexec.Command{Name: binary, Args: []string{"--version"}})
	if err != nil {
		return nil, VersionError{Output: res.Stdout, Err: err}
	}
	return ParseVersion(res.Stdout)
}

// ParseVersion extracts the first dotted version number from output.
func ParseVersion(output string) (*version.Version, error) {
	raw := versionPattern.FindString(output)
	if raw == "" {
		return nil, VersionError{Output: strings.TrimSpace(output)}
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return nil, VersionError{Output: raw, Err: err}
	}
	return v, nil
}

// SupportsCacheDir reports whether v accepts --cache-dir.
func SupportsCacheDir(v *version.Version) bool {
	return v != nil && v.GreaterThanOrEqual(cacheDirSince)
}

// Args builds the debootstrap argument list. The cache dir is only passed
// when v supports it.
func Args(opts Options, v *version.Version) ([]string, error) {
	switch {
	case strings.TrimSpace(opts.Arch) == "":
		return nil, ValidationError{Field: "arch"}
	case strings.TrimSpace(opts.Release) == "":
		return nil, ValidationError{Field: "release"}
	case strings.TrimSpace(opts.Target) == "":
		return nil, ValidationError{Field: "target"}
	case strings.TrimSpace(opts.Mirror) == "":
		return nil, ValidationError{Field: "mirror"}
	}
	variant := opts.Variant
	if variant == "" {
		variant = defaultVariant
	}

	args := []string{"--arch=" + opts.Arch, "--variant=" + variant}
	if len(opts.Include) > 0 {
		args = append(args, "--include="+strings.Join(opts.Include, ","))
	}
	if opts.CacheDir != "" && SupportsCacheDir(v) {
		args = append(args, "--cache-dir="+opts.CacheDir)
	}
	return append(args, opts.Release, opts.Target, opts.Mirror), nil
}

// Run bootstraps opts.Target inside dir.
func Run(ctx context.Context, exec hostexec.Executor, dir string, opts Options, v *version.Version) error {
	args, err := Args(opts, v)
	if err != nil {
		return err
	}
	_, err = exec.Run(ctx, hostexec.Command{Name: binary, Args: args, Dir: dir})
	return err
}

// DebianArch maps a Go GOARCH value to the Debian architecture name.
func DebianArch(goarch string) string {
	switch goarch {
	case "386":
		return "i386"
	case "arm":
		return "armhf"
	case "ppc64le":
		return "ppc64el"
	case "mipsle":
		return "mipsel"
	case "mips64le":
		return "mips64el"
	default:
		// amd64, arm64, s390x, riscv64 share names.
		return goarch
	}
}
