// Package useraccount creates the login user inside the container, sets the
// user and root passwords and optionally installs an SSH key.
package useraccount

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
	"github.com/BrianJOC/nspawn-vm-prep/phases/configure"
	"github.com/BrianJOC/nspawn-vm-prep/phases/host"
	"github.com/BrianJOC/nspawn-vm-prep/utils/sshkeypair"
	"github.com/BrianJOC/nspawn-vm-prep/utils/systemuser"
)

const phaseID = "useraccount"

// Context keys published on success.
const (
	ContextKeyUser    = "useraccount:user"
	ContextKeyHomeDir = "useraccount:home_dir"
	ContextKeyKeyPair = "useraccount:key_pair"
)

// KeyEnsurer produces the key pair whose public half is authorized.
type KeyEnsurer func(privatePath string, opts ...sshkeypair.Option) (*sshkeypair.KeyPairInfo, error)

// Phase creates the container user.
type Phase struct {
	host      host.Host
	ensureKey KeyEnsurer
	logger    *log.Logger
}

// New constructs the useraccount phase.
func New(h host.Host) *Phase {
	return &Phase{host: h, ensureKey: sshkeypair.EnsureKeyPair, logger: log.New(io.Discard)}
}

// WithKeyEnsurer overrides key pair handling (for tests).
func (p *Phase) WithKeyEnsurer(fn KeyEnsurer) *Phase {
	if fn != nil {
		p.ensureKey = fn
	}
	return p
}

// WithLogger sets the diagnostics logger.
func (p *Phase) WithLogger(logger *log.Logger) *Phase {
	if logger != nil {
		p.logger = logger
	}
	return p
}

func (p *Phase) Metadata() phases.PhaseMetadata {
	return phases.PhaseMetadata{
		ID:          phaseID,
		Title:       "Create user account",
		Description: "Create the login user and set the user and root passwords.",
	}
}

func (p *Phase) Run(ctx context.Context, phaseCtx *phases.Context) error {
	cfg, err := configure.ConfigFrom(phaseCtx)
	if err != nil {
		return err
	}
	user := p.host.Settings.User

	opts := []systemuser.Option{
		systemuser.WithPassword(cfg.Password),
		systemuser.WithRootPassword(cfg.Password),
	}
	if cfg.SSHD && cfg.SSHKeyPath != "" {
		info, err := p.ensureKey(cfg.SSHKeyPath, sshkeypair.WithComment(user+"@"+cfg.Name))
		if err != nil {
			return err
		}
		if info.KeyGenerated {
			p.logger.Info("generated ssh key pair", "path", info.PrivatePath)
		}
		opts = append(opts, systemuser.WithAuthorizedKey(info.AuthorizedKey))
		phaseCtx.Set(ContextKeyKeyPair, *info)
	}

	runner, err := p.host.Nspawn(cfg.Name)
	if err != nil {
		return err
	}
	res, err := systemuser.EnsureUser(ctx, runner, user, opts...)
	if err != nil {
		return err
	}
	p.logger.Info("user ensured", "user", res.Username, "created", res.UserCreated, "authorized_key", res.AuthorizedKeyUpdated)

	phaseCtx.Set(ContextKeyUser, res.Username)
	phaseCtx.Set(ContextKeyHomeDir, res.HomeDir)
	return nil
}

// KeyPairFrom returns the key pair installed for the user, if any.
func KeyPairFrom(phaseCtx *phases.Context) (sshkeypair.KeyPairInfo, bool) {
	return phases.Lookup[sshkeypair.KeyPairInfo](phaseCtx, ContextKeyKeyPair)
}
