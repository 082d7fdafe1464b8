package main

import (
	"github.com/spf13/cobra"

	"github.com/BrianJOC/nspawn-vm-prep/hostconfig"
)

type options struct {
	envFile        string
	configFile     string
	tui            bool
	nonInteractive bool
	interactive    bool
	verbose        bool
}

var settingUsage = map[string]string{
	hostconfig.KeyMachinesDir:  "directory holding machine roots (default /var/lib/machines)",
	hostconfig.KeyNspawnDir:    "directory holding .nspawn units (default /etc/systemd/nspawn)",
	hostconfig.KeyCacheDir:     "debootstrap package cache",
	hostconfig.KeyMirror:       "Debian mirror URL",
	hostconfig.KeyArch:         "Debian architecture (default: host architecture)",
	hostconfig.KeyUser:         "login user created in the container (default debian)",
	hostconfig.KeyPrivateUsers: "systemd-nspawn --private-users mode (default no)",
}

func newRootCommand(r *runner) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "nspawn-vm-prep",
		Short: "Provision a Debian systemd-nspawn container",
		Long: `nspawn-vm-prep bootstraps a Debian root filesystem with debootstrap and
prepares it to run as a systemd-nspawn machine: hostname, sudo user, optional
SSH server, optional VNC desktop and an optional Ansible playbook.

Every parameter can be preset through an environment variable of the same
name (VMNAME, VMRELEASE, VMSSHD, ...) or an --env-file; anything not preset is
asked for on the terminal.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.run(cmd.Context(), opts, cmd.Flags())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file with parameter overrides")
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML file with host settings")
	flags.BoolVar(&opts.tui, "tui", false, "run the full-screen interface")
	flags.BoolVar(&opts.nonInteractive, "non-interactive", false, "never prompt; missing parameters are an error")
	flags.BoolVar(&opts.interactive, "interactive", false, "prompt even when stdin is not a terminal")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.MarkFlagsMutuallyExclusive("non-interactive", "interactive")
	cmd.MarkFlagsMutuallyExclusive("non-interactive", "tui")

	for _, key := range hostconfig.Keys {
		flags.String(hostconfig.FlagName(key), "", settingUsage[key])
	}

	return cmd
}
