// Package systemuser creates the login account inside a container and sets
// its credentials.
package systemuser

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/BrianJOC/nspawn-vm-prep/utils/hostexec"
)

// Runner executes shell scripts inside the container as root. stdin is fed
// to the script.
type Runner interface {
	Run(ctx context.Context, script, stdin string) (stdout string, stderr string, err error)
}

// Result reports what EnsureUser performed.
type Result struct {
	Username             string
	HomeDir              string
	UserCreated          bool
	PasswordSet          bool
	RootPasswordSet      bool
	AuthorizedKeyUpdated bool
}

// Option configures EnsureUser behavior.
type Option func(*ensureUserOptions) error

type ensureUserOptions struct {
	shell        string
	homeDir      string
	password     string
	rootPassword string
	publicKey    string
}

// WithShell overrides the login shell assigned to the user.
func WithShell(shell string) Option {
	return func(opts *ensureUserOptions) error {
		shell = strings.TrimSpace(shell)
		if shell == "" {
			return OptionError{Reason: "shell must not be empty"}
		}
		opts.shell = shell
		return nil
	}
}

// WithHomeDir overrides the home directory assigned to the user.
func WithHomeDir(dir string) Option {
	return func(opts *ensureUserOptions) error {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			return OptionError{Reason: "home directory must not be empty"}
		}
		opts.homeDir = dir
		return nil
	}
}

// WithPassword sets the user's password through chpasswd.
func WithPassword(password string) Option {
	return func(opts *ensureUserOptions) error {
		// chpasswd splits at the first colon, so only line breaks are fatal.
		if strings.ContainsAny(password, "\r\n") {
			return OptionError{Reason: "password must not contain newlines"}
		}
		opts.password = password
		return nil
	}
}

// WithRootPassword also sets root's password through chpasswd.
func WithRootPassword(password string) Option {
	return func(opts *ensureUserOptions) error {
		if strings.ContainsAny(password, "\r\n") {
			return OptionError{Reason: "root password must not contain newlines"}
		}
		opts.rootPassword = password
		return nil
	}
}

// WithAuthorizedKey installs publicKey into the user's authorized_keys.
func WithAuthorizedKey(publicKey string) Option {
	return func(opts *ensureUserOptions) error {
		publicKey = strings.TrimSpace(publicKey)
		if publicKey == "" {
			return OptionError{Reason: "public key must not be empty"}
		}
		opts.publicKey = publicKey
		return nil
	}
}

// EnsureUser creates username when missing and applies the configured
// credentials.
func EnsureUser(ctx context.Context, r Runner, username string, opts ...Option) (*Result, error) {
	if r == nil {
		return nil, RunnerError{}
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ValidationError{Reason: "username is required"}
	}
	if strings.ContainsAny(username, " :/") {
		return nil, ValidationError{Reason: "username must not contain spaces, colons or slashes"}
	}

	config := ensureUserOptions{shell: "/bin/bash"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&config); err != nil {
			return nil, err
		}
	}
	if config.homeDir == "" {
		config.homeDir = path.Join("/home", username)
	}

	result := &Result{
		Username: username,
		HomeDir:  config.homeDir,
	}

	if !userExists(ctx, r, username) {
		if err := createUser(ctx, r, username, config.homeDir, config.shell); err != nil {
			return nil, err
		}
		result.UserCreated = true
	}

	if config.password != "" {
		if err := setPassword(ctx, r, username, config.password); err != nil {
			return nil, err
		}
		result.PasswordSet = true
	}
	if config.rootPassword != "" {
		if err := setPassword(ctx, r, "root", config.rootPassword); err != nil {
			return nil, err
		}
		result.RootPasswordSet = true
	}

	if config.publicKey != "" {
		if err := ensureAuthorizedKey(ctx, r, username, config.homeDir, config.publicKey); err != nil {
			return nil, err
		}
		result.AuthorizedKeyUpdated = true
	}

	return result, nil
}

func userExists(ctx context.Context, r Runner, username string) bool {
	cmd := fmt.Sprintf("id -u %s >/dev/null 2>&1", hostexec.Quote(username))
	_, _, err := r.Run(ctx, cmd, "")
	return err == nil
}

func createUser(ctx context.Context, r Runner, username, homeDir, shell string) error {
	cmd := fmt.Sprintf("useradd --create-home --home-dir %s --shell %s %s",
		hostexec.Quote(homeDir), hostexec.Quote(shell), hostexec.Quote(username))
	return runStep(ctx, r, "useradd", cmd, "")
}

// setPassword feeds "user:password" to chpasswd on stdin.
func setPassword(ctx context.Context, r Runner, username, password string) error {
	return runStep(ctx, r, "chpasswd "+username, "chpasswd", username+":"+password+"\n")
}

func ensureAuthorizedKey(ctx context.Context, r Runner, username, homeDir, publicKey string) error {
	sshDir := path.Join(homeDir, ".ssh")
	authPath := path.Join(sshDir, "authorized_keys")
	user := hostexec.Quote(username)
	script := fmt.Sprintf(`set -eu
install -o %s -g %s -m 700 -d %s
touch %s
grep -qxF -- "$(cat)" %s 2>/dev/null || printf '%%s\n' %s >> %s
chown %s:%s %s
chmod 600 %s`,
		user, user, hostexec.Quote(sshDir),
		hostexec.Quote(authPath),
		hostexec.Quote(authPath), hostexec.Quote(publicKey), hostexec.Quote(authPath),
		user, user, hostexec.Quote(authPath),
		hostexec.Quote(authPath))
	return runStep(ctx, r, "authorized_keys", script, publicKey)
}

func runStep(ctx context.Context, r Runner, step, cmd, stdin string) error {
	_, stderr, err := r.Run(ctx, cmd, stdin)
	if err != nil {
		return CommandError{Step: step, Err: err, Stderr: stderr}
	}
	return nil
}
