package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/nspawn-vm-prep/hostconfig"
	"github.com/BrianJOC/nspawn-vm-prep/phases"
	"github.com/BrianJOC/nspawn-vm-prep/vmconfig"
)

func TestHeader(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Install SSH server? [yN]", Header(phases.InputDefinition{
		Label: "Install SSH server?", Kind: phases.InputKindBool, Default: false,
	}))
	require.Equal(t, "Install SSH server? [Yn]", Header(phases.InputDefinition{
		Label: "Install SSH server?", Kind: phases.InputKindBool, Default: true,
	}))
	require.Equal(t, "Debian release (choices: stable, testing, default: stable)", Header(phases.InputDefinition{
		Label:   "Debian release",
		Kind:    phases.InputKindSelect,
		Options: []phases.InputOption{{Value: "stable"}, {Value: "testing"}},
		Default: "stable",
	}))
	require.Equal(t, "SSH server port (default: 2022)", Header(phases.InputDefinition{
		Label: "SSH server port", Kind: phases.InputKindInt, Default: 2022,
	}))
	require.Equal(t, "User password (default: ********)", Header(phases.InputDefinition{
		Label: "User password", Kind: phases.InputKindSecret, Secret: true, Default: "debian",
	}))
}

func TestPrompterReadsLinesAndRepromptsWithReason(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("maybe\n y \n"), NewPrinter(&out))
	def := phases.InputDefinition{ID: "VMSSHD", Label: "Install SSH server?", Kind: phases.InputKindBool, Default: false}

	v, err := p.RequestInput(phases.PhaseMetadata{}, def, "")
	require.NoError(t, err)
	require.Equal(t, "maybe", v)

	v, err = p.RequestInput(phases.PhaseMetadata{}, def, "Invalid boolean")
	require.NoError(t, err)
	require.Equal(t, "y", v)

	text := out.String()
	require.Equal(t, 1, strings.Count(text, "Install SSH server? [yN]"))
	require.Contains(t, text, "Invalid boolean")
	require.Equal(t, 2, strings.Count(text, "VMSSHD="))
}

func TestPipedAnswerEndsPromptLine(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printer := NewPrinter(&out)
	p := NewPrompter(strings.NewReader("\n"), printer)
	v, err := p.RequestInput(phases.PhaseMetadata{}, phases.InputDefinition{ID: "VMPLAYBOOK", Label: "Playbook"}, "")
	require.NoError(t, err)
	require.Equal(t, "", v)

	printer.Green("VMPLAYBOOK=")
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Equal(t, []string{"Playbook (default: )", "VMPLAYBOOK=", "VMPLAYBOOK="}, lines)
}

func TestPrompterEOF(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewPrompter(strings.NewReader(""), NewPrinter(&out))
	_, err := p.RequestInput(phases.PhaseMetadata{}, phases.InputDefinition{ID: "VMNAME"}, "")
	require.ErrorIs(t, err, ErrNoInput)

	p = NewPrompter(strings.NewReader("last"), NewPrinter(&out))
	v, err := p.RequestInput(phases.PhaseMetadata{}, phases.InputDefinition{ID: "VMNAME"}, "")
	require.NoError(t, err)
	require.Equal(t, "last", v)
}

func TestPrompterSecretReader(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewPrompter(strings.NewReader(""), NewPrinter(&out), WithSecretReader(func() (string, error) {
		return " hunter2 ", nil
	}))
	v, err := p.RequestInput(phases.PhaseMetadata{}, phases.InputDefinition{ID: "VMPASS", Secret: true}, "")
	require.NoError(t, err)
	require.Equal(t, "hunter2", v)
	require.NotContains(t, out.String(), "hunter2")
}

func TestObserver(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	o := NewObserver(NewPrinter(&out))
	meta := phases.PhaseMetadata{ID: "vnc", Title: "VNC desktop"}
	o.PhaseStarted(meta)
	o.PhaseCompleted(meta, phases.Skip("graphics disabled"))
	o.PhaseCompleted(meta, errors.New("boom"))

	text := out.String()
	require.Contains(t, text, "==> VNC desktop")
	require.Contains(t, text, "skipped: graphics disabled")
	require.Contains(t, text, "VNC desktop failed: boom")
}

func TestSummaryAndCleanup(t *testing.T) {
	t.Parallel()

	settings := hostconfig.Defaults("/root", "")
	cfg := vmconfig.Config{Name: "vm1", SSHD: true, SSHDPort: 2022, Graphics: true, Display: 5, Password: "hunter2"}

	var out bytes.Buffer
	Summary(NewPrinter(&out), cfg, settings)
	text := out.String()
	require.Contains(t, text, "machinectl start vm1")
	require.Contains(t, text, "ssh debian@HOSTNAME -p 2022")
	require.Contains(t, text, "5905")
	require.Contains(t, text, "rm -rf /var/lib/machines/vm1")
	require.NotContains(t, text, "hunter2")

	out.Reset()
	Cleanup(NewPrinter(&out), "vm1", settings)
	require.Contains(t, out.String(), "rm /etc/systemd/nspawn/vm1.nspawn")
	require.Contains(t, out.String(), "machinectl stop vm1")
}
