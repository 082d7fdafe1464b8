package vncconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/nspawn-vm-prep/utils/hostexec"
)

func TestConfigureRunsStepsInOrder(t *testing.T) {
	t.Parallel()

	var calls []string
	root := &fakeRunner{name: "root", calls: &calls}
	user := &fakeRunner{name: "debian", calls: &calls}

	err := Configure(context.Background(), root, user, Settings{
		User:     "debian",
		Display:  5,
		Session:  "icewm-session",
		Geometry: "1280x720",
		Password: "pw",
	})
	require.NoError(t, err)
	q := hostexec.Quote
	require.Equal(t, []string{
		"root: echo " + q(":5=debian") + " >> /etc/tigervnc/vncserver.users",
		"debian: mkdir -p " + q("/home/debian/.vnc"),
		"debian: vncpasswd -f > " + q("/home/debian/.vnc/passwd") + " <- pw\n",
		"root: chmod 600 " + q("/home/debian/.vnc/passwd"),
		"debian: cat > " + q("/home/debian/.vnc/config") + " <- session=icewm-session\ngeometry=1280x720\nlocalhost=no\nalwaysshared\n",
		"root: systemctl enable " + q("tigervncserver@:5"),
	}, calls)
}

func TestConfigureStopsOnFailure(t *testing.T) {
	t.Parallel()

	var calls []string
	root := &fakeRunner{name: "root", calls: &calls, failOn: "systemctl", stderr: "unit not found"}
	user := &fakeRunner{name: "debian", calls: &calls}

	err := Configure(context.Background(), root, user, Settings{
		User: "debian", Display: 1, Session: "xfce", Geometry: "800x600",
	})
	var cmdErr CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, "enable tigervncserver@:1", cmdErr.Step)
}

func TestConfigureValidates(t *testing.T) {
	t.Parallel()

	var calls []string
	r := &fakeRunner{calls: &calls}
	require.IsType(t, ValidationError{}, Configure(context.Background(), nil, r, Settings{}))
	require.IsType(t, ValidationError{}, Configure(context.Background(), r, r, Settings{User: "debian"}))
	require.Empty(t, calls)
}

type fakeRunner struct {
	name   string
	calls  *[]string
	failOn string
	stderr string
}

func (f *fakeRunner) Run(_ context.Context, script, stdin string) (string, string, error) {
	entry := fmt.Sprintf("%s: %s", f.name, script)
	if stdin != "" {
		entry += " <- " + stdin
	}
	*f.calls = append(*f.calls, entry)
	if f.failOn != "" && strings.Contains(script, f.failOn) {
		return "", f.stderr, errors.New("exit status 1")
	}
	return "", "", nil
}
