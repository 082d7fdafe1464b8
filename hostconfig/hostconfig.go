// Package hostconfig loads host-side provisioning settings: where machines
// and nspawn units live, which mirror and architecture to bootstrap, and the
// login user created inside the container.
package hostconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/BrianJOC/nspawn-vm-prep/utils/debootstrap"
)

// EnvPrefix namespaces environment variables, e.g. NSPAWNPREP_MIRROR.
const EnvPrefix = "NSPAWNPREP"

const cacheSubdir = "b9_provision_nspawn_deb"

// Keys understood in the config file, environment and flags.
const (
	KeyMachinesDir  = "machines_dir"
	KeyNspawnDir    = "nspawn_dir"
	KeyCacheDir     = "cache_dir"
	KeyMirror       = "mirror"
	KeyArch         = "arch"
	KeyUser         = "user"
	KeyPrivateUsers = "private_users"
)

// Keys lists every setting in display order.
var Keys = []string{KeyMachinesDir, KeyNspawnDir, KeyCacheDir, KeyMirror, KeyArch, KeyUser, KeyPrivateUsers}

// FlagName is the command-line flag bound to key.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Settings are the resolved host settings.
type Settings struct {
	MachinesDir  string `mapstructure:"machines_dir" validate:"required,startswith=/"`
	NspawnDir    string `mapstructure:"nspawn_dir" validate:"required,startswith=/"`
	CacheDir     string `mapstructure:"cache_dir"`
	Mirror       string `mapstructure:"mirror" validate:"required,url"`
	Arch         string `mapstructure:"arch" validate:"required,alphanum"`
	User         string `mapstructure:"user" validate:"required,excludesall=: /"`
	PrivateUsers string `mapstructure:"private_users" validate:"required,oneof=no yes pick identity"`
}

// MachineDir returns the root directory of machine.
func (s Settings) MachineDir(machine string) string {
	return filepath.Join(s.MachinesDir, machine)
}

// UnitPath returns the nspawn unit path for machine.
func (s Settings) UnitPath(machine string) string {
	return filepath.Join(s.NspawnDir, machine+".nspawn")
}

// Defaults returns the built-in settings. home and xdgCache may be empty.
func Defaults(home, xdgCache string) Settings {
	cache := ""
	switch {
	case xdgCache != "":
		cache = filepath.Join(xdgCache, cacheSubdir)
	case home != "":
		cache = filepath.Join(home, ".cache", cacheSubdir)
	}
	return Settings{
		MachinesDir:  "/var/lib/machines",
		NspawnDir:    "/etc/systemd/nspawn",
		CacheDir:     cache,
		Mirror:       "http://deb.debian.org/debian/",
		Arch:         debootstrap.DebianArch(runtime.GOARCH),
		User:         "debian",
		PrivateUsers: "no",
	}
}

// LoadOptions selects the sources merged by Load.
type LoadOptions struct {
	// ConfigFile is an optional YAML file. A missing explicit file is an error.
	ConfigFile string
	// Flags are bound by key name; only flags the operator changed win.
	Flags *pflag.FlagSet
	// Env enables NSPAWNPREP_* environment variables.
	Env bool
	// Defaults replaces Defaults(home, $XDG_CACHE_HOME) when non-nil.
	Defaults *Settings
}

var validate = validator.New()

// Load merges defaults < config file < environment < flags and validates
// the result.
func Load(opts LoadOptions) (Settings, error) {
	defaults := opts.Defaults
	if defaults == nil {
		home, _ := os.UserHomeDir()
		d := Defaults(home, os.Getenv("XDG_CACHE_HOME"))
		defaults = &d
	}

	v := viper.New()
	v.SetDefault(KeyMachinesDir, defaults.MachinesDir)
	v.SetDefault(KeyNspawnDir, defaults.NspawnDir)
	v.SetDefault(KeyCacheDir, defaults.CacheDir)
	v.SetDefault(KeyMirror, defaults.Mirror)
	v.SetDefault(KeyArch, defaults.Arch)
	v.SetDefault(KeyUser, defaults.User)
	v.SetDefault(KeyPrivateUsers, defaults.PrivateUsers)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, LoadError{Path: opts.ConfigFile, Err: err}
		}
	}

	if opts.Env {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()
	}

	if opts.Flags != nil {
		for _, key := range Keys {
			flag := opts.Flags.Lookup(FlagName(key))
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Settings{}, LoadError{Err: err}
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, LoadError{Path: opts.ConfigFile, Err: err}
	}
	if err := validate.Struct(s); err != nil {
		return Settings{}, toValidationError(err)
	}
	return s, nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationError{Reason: err.Error()}
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", fe.Field(), rule))
	}
	return ValidationError{Reason: "invalid " + strings.Join(parts, ", ")}
}
