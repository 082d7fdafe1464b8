package rootfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newRoot(t *testing.T) *Root {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "etc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "etc/hosts"), []byte("127.0.0.1\tlocalhost\n"), 0o644))
	r, err := New(dir)
	require.NoError(t, err)
	return r
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestInjectsFiles(t *testing.T) {
	t.Parallel()

	r := newRoot(t)

	path, err := r.WriteHostname("vm1")
	require.NoError(t, err)
	require.Equal(t, "vm1\n", readFile(t, path))

	path, err = r.WriteSudoer("debian")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(r.Dir(), "etc/sudoers.d/debian"), path)
	require.Equal(t, "debian ALL=(ALL:ALL) ALL", readFile(t, path))

	path, err = r.WriteSSHDPort(2022)
	require.NoError(t, err)
	require.Equal(t, "Port 2022", readFile(t, path))

	path, err = r.AppendHosts("vm1")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1\tlocalhost\n127.0.1.1\tvm1", readFile(t, path))
}

func TestRejectsBadInput(t *testing.T) {
	t.Parallel()

	r := newRoot(t)
	_, err := r.WriteSSHDPort(0)
	require.IsType(t, ValidationError{}, err)
	_, err = r.WriteSudoer("../evil")
	require.IsType(t, ValidationError{}, err)
	_, err = r.WriteHostname(" ")
	require.IsType(t, ValidationError{}, err)

	_, err = New(filepath.Join(t.TempDir(), "missing"))
	require.IsType(t, WriteError{}, err)
}

func TestWriteUnit(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nspawn")
	path, err := WriteUnit(dir, "vm1", "no")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "vm1.nspawn"), path)
	require.Equal(t, "[Exec]\nPrivateUsers=no\n\n[Network]\nVirtualEthernet=no\n", readFile(t, path))
}
