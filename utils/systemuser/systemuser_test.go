package systemuser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureUserCreatesAndConfigures(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{
		responses: []fakeResponse{
			{match: "id -u", err: errors.New("exit status 1"), stderr: "no such user"},
			{match: "useradd --create-home"},
			{match: "chpasswd", stdin: "debian:s3cret\n"},
			{match: "chpasswd", stdin: "root:s3cret\n"},
			{match: "authorized_keys", stdin: "ssh-ed25519 AAAA vm"},
		},
	}

	res, err := EnsureUser(context.Background(), r, "debian",
		WithPassword("s3cret"),
		WithRootPassword("s3cret"),
		WithAuthorizedKey("ssh-ed25519 AAAA vm\n"),
	)
	require.NoError(t, err)
	require.True(t, res.UserCreated)
	require.True(t, res.PasswordSet)
	require.True(t, res.RootPasswordSet)
	require.True(t, res.AuthorizedKeyUpdated)
	require.Equal(t, "/home/debian", res.HomeDir)
	require.Empty(t, r.responses)
	for _, cmd := range r.commands {
		require.NotContains(t, cmd, "s3cret")
	}
}

func TestEnsureUserSkipsExistingUser(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{
		responses: []fakeResponse{
			{match: "id -u"},
		},
	}

	res, err := EnsureUser(context.Background(), r, "debian")
	require.NoError(t, err)
	require.False(t, res.UserCreated)
	require.False(t, res.PasswordSet)
	require.False(t, res.AuthorizedKeyUpdated)
}

func TestEnsureUserValidation(t *testing.T) {
	t.Parallel()

	_, err := EnsureUser(context.Background(), nil, "debian")
	require.IsType(t, RunnerError{}, err)

	r := &fakeRunner{}
	_, err = EnsureUser(context.Background(), r, "")
	require.IsType(t, ValidationError{}, err)

	_, err = EnsureUser(context.Background(), r, "de bian")
	require.IsType(t, ValidationError{}, err)

	_, err = EnsureUser(context.Background(), r, "debian", WithShell(" "))
	require.IsType(t, OptionError{}, err)

	_, err = EnsureUser(context.Background(), r, "debian", WithPassword("a\nb"))
	require.IsType(t, OptionError{}, err)

	_, err = EnsureUser(context.Background(), r, "debian", WithRootPassword("a\rb"))
	require.IsType(t, OptionError{}, err)
}

func TestEnsureUserAcceptsColonInPassword(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{
		responses: []fakeResponse{
			{match: "id -u"},
			{match: "chpasswd", stdin: "debian:pa:ss\n"},
			{match: "chpasswd", stdin: "root:pa:ss\n"},
		},
	}

	res, err := EnsureUser(context.Background(), r, "debian", WithPassword("pa:ss"), WithRootPassword("pa:ss"))
	require.NoError(t, err)
	require.True(t, res.PasswordSet)
	require.True(t, res.RootPasswordSet)
	require.Empty(t, r.responses)
}

func TestEnsureUserPropagatesCommandErrors(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{
		responses: []fakeResponse{
			{match: "id -u"},
			{match: "chpasswd", err: errors.New("exit status 1"), stderr: "chpasswd: (user debian) pam_chauthtok() failed"},
		},
	}

	_, err := EnsureUser(context.Background(), r, "debian", WithPassword("x"))
	var cmdErr CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, "chpasswd debian", cmdErr.Step)
}

type fakeRunner struct {
	responses []fakeResponse
	commands  []string
}

type fakeResponse struct {
	match  string
	stdin  string
	stdout string
	stderr string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, cmd, stdin string) (string, string, error) {
	f.commands = append(f.commands, cmd)
	if len(f.responses) == 0 {
		return "", "", fmt.Errorf("unexpected command: %s", cmd)
	}

	resp := f.responses[0]
	f.responses = f.responses[1:]

	if resp.match != "" && !strings.Contains(cmd, resp.match) {
		return "", "", fmt.Errorf("unexpected command %q; expected substring %q", cmd, resp.match)
	}
	if resp.stdin != "" && resp.stdin != stdin {
		return "", "", fmt.Errorf("unexpected stdin %q for %q", stdin, cmd)
	}

	return resp.stdout, resp.stderr, resp.err
}
