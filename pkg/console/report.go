package console

import (
	"github.com/BrianJOC/nspawn-vm-prep/hostconfig"
	"github.com/BrianJOC/nspawn-vm-prep/vmconfig"
)

// Summary prints how to use the freshly provisioned container.
func Summary(p *Printer, cfg vmconfig.Config, settings hostconfig.Settings) {
	p.Plain("Setup finished")
	p.Blue("root password: %s", mask)
	p.Blue("%s password: %s", settings.User, mask)
	p.Plain("Start your new VM:")
	p.Green("    machinectl start %s", cfg.Name)
	p.Plain("Enable your new VM on boot:")
	p.Green("    machinectl enable %s", cfg.Name)
	p.Plain("Log into your new VM:")
	p.Green("    machinectl login %s", cfg.Name)
	if cfg.SSHD {
		p.Plain("You can connect to your VM using:")
		p.Green("    ssh %s@HOSTNAME -p %d", settings.User, cfg.SSHDPort)
	}
	if cfg.Graphics {
		p.Plain("You can expect the VNC server to be running on %d", cfg.VNCPort())
	}
	p.Plain("You can delete your new VM with:")
	for _, line := range RemovalCommands(cfg.Name, settings) {
		p.Green("    %s", line)
	}
}

// Cleanup prints the manual recipe for removing partially created state.
func Cleanup(p *Printer, machine string, settings hostconfig.Settings) {
	p.Red("Something went wrong with the installation, run this to clean up your system:")
	for _, line := range RemovalCommands(machine, settings) {
		p.Red("    %s", line)
	}
}

// RemovalCommands lists the shell commands that remove machine.
func RemovalCommands(machine string, settings hostconfig.Settings) []string {
	return []string{
		"machinectl stop " + machine,
		"rm -rf " + settings.MachineDir(machine),
		"rm " + settings.UnitPath(machine),
	}
}
