package params

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBooleanTokens(t *testing.T) {
	t.Parallel()

	spec := Spec{Name: "VMSSHD", Kind: KindBoolean, Default: false}
	for _, tok := range []string{"y", "yes", "t", "true", "1", "Y", "YES", "True", "tRuE"} {
		v, err := Parse(spec, tok)
		require.NoError(t, err, tok)
		require.True(t, v.Bool, tok)
		require.Equal(t, "1", v.String())
	}
	for _, tok := range []string{"n", "no", "f", "false", "0", "N", "No", "FALSE"} {
		v, err := Parse(spec, tok)
		require.NoError(t, err, tok)
		require.False(t, v.Bool, tok)
		require.Equal(t, "0", v.String())
	}
	for _, tok := range []string{"maybe", "2", "yess", "on"} {
		_, err := Parse(spec, tok)
		var parseErr ParseError
		require.ErrorAs(t, err, &parseErr, tok)
		require.Equal(t, "Invalid boolean", parseErr.Reason)
	}
}

func TestParseInteger(t *testing.T) {
	t.Parallel()

	spec := Spec{Name: "VMDISPLAY", Kind: KindInteger, Default: 1}
	v, err := Parse(spec, "42")
	require.NoError(t, err)
	require.Equal(t, 42, v.Int)

	v, err = Parse(spec, " 7 ")
	require.NoError(t, err)
	require.Equal(t, 7, v.Int)

	_, err = Parse(spec, "seven")
	var parseErr ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "Invalid integer", parseErr.Reason)
}

func TestParseEnumIsCaseSensitive(t *testing.T) {
	t.Parallel()

	spec := Spec{Name: "VMRELEASE", Kind: KindEnum, Default: "stable", Choices: []string{"stable", "testing"}}
	v, err := Parse(spec, "testing")
	require.NoError(t, err)
	require.Equal(t, "testing", v.Str)

	_, err = Parse(spec, "Stable")
	var parseErr ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "Invalid choice", parseErr.Reason)
}

func TestParseEmptyUsesDefault(t *testing.T) {
	t.Parallel()

	cases := []struct {
		spec Spec
		want any
	}{
		{Spec{Name: "S", Kind: KindString, Default: "vm1"}, "vm1"},
		{Spec{Name: "B", Kind: KindBoolean, Default: true}, true},
		{Spec{Name: "b", Kind: KindBoolean, Default: false}, false},
		{Spec{Name: "I", Kind: KindInteger, Default: 2022}, 2022},
		{Spec{Name: "E", Kind: KindEnum, Default: "icewm", Choices: []string{"icewm", "xfce4"}}, "icewm"},
	}
	for _, tc := range cases {
		v, err := Parse(tc.spec, "   ")
		require.NoError(t, err, tc.spec.Name)
		require.Equal(t, tc.want, v.Any(), tc.spec.Name)
	}
}

func TestParseAppliesRules(t *testing.T) {
	t.Parallel()

	spec := Spec{Name: "VMSSHDPORT", Kind: KindInteger, Default: 2022, Rules: "min=1,max=65535"}
	_, err := Parse(spec, "70000")
	var parseErr ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "Invalid value (max=65535)", parseErr.Reason)

	check := Spec{Name: "X", Kind: KindString, Default: "a", Check: func(v Value) error {
		if strings.Contains(v.Str, " ") {
			return errors.New("Invalid value (no spaces)")
		}
		return nil
	}}
	_, err = Parse(check, "a b")
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "Invalid value (no spaces)", parseErr.Reason)
}

func TestSpecValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Spec{Name: "A", Kind: KindString, Default: ""}.Validate())
	require.IsType(t, SpecError{}, Spec{Name: "E", Kind: KindEnum, Default: "x"}.Validate())
	require.IsType(t, SpecError{}, Spec{Name: "E", Kind: KindEnum, Default: "x", Choices: []string{"y"}}.Validate())
	require.IsType(t, SpecError{}, Spec{Name: "B", Kind: KindBoolean, Default: "yes"}.Validate())
	require.IsType(t, SpecError{}, Spec{Name: "", Kind: KindString, Default: ""}.Validate())
}

func TestResolverPrefersOverride(t *testing.T) {
	t.Parallel()

	spec := Spec{Name: "VMNAME", Kind: KindString, Default: "vm1"}
	r := NewResolver(MapEnv{"VMNAME": "  box  "})
	answer := "ignored"
	v, src, err := r.Resolve(spec, &answer)
	require.NoError(t, err)
	require.Equal(t, SourceOverride, src)
	require.Equal(t, "box", v.Str)
}

func TestResolverBlankOverrideFallsBackToAnswer(t *testing.T) {
	t.Parallel()

	spec := Spec{Name: "VMNAME", Kind: KindString, Default: "vm1"}
	r := NewResolver(MapEnv{"VMNAME": "   "})

	_, _, err := r.Resolve(spec, nil)
	require.IsType(t, NeedsInputError{}, err)

	answer := ""
	v, src, err := r.Resolve(spec, &answer)
	require.NoError(t, err)
	require.Equal(t, SourceInteractive, src)
	require.Equal(t, "vm1", v.Str)
}

func TestResolverOverrideParseFailureIsFatal(t *testing.T) {
	t.Parallel()

	spec := Spec{Name: "VMDESKTOP", Kind: KindEnum, Default: "icewm", Choices: []string{"icewm", "xfce4"}}
	r := NewResolver(MapEnv{"VMDESKTOP": "bogus"})
	_, src, err := r.Resolve(spec, nil)
	require.Equal(t, SourceOverride, src)
	var overrideErr OverrideError
	require.ErrorAs(t, err, &overrideErr)
	require.Equal(t, "bogus", overrideErr.Value)
	var parseErr ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestResolverAnswerParseFailureIsRecoverable(t *testing.T) {
	t.Parallel()

	spec := Spec{Name: "VMSSHD", Kind: KindBoolean, Default: false}
	r := NewResolver(nil)
	answer := "perhaps"
	_, src, err := r.Resolve(spec, &answer)
	require.Equal(t, SourceInteractive, src)
	require.IsType(t, ParseError{}, err)
}

func TestLayeredEnv(t *testing.T) {
	t.Parallel()

	env := Layered(MapEnv{"A": " ", "B": "first"}, MapEnv{"A": "second", "B": "other", "C": "third"})
	v, ok := env.Lookup("A")
	require.True(t, ok)
	require.Equal(t, "second", v)
	v, _ = env.Lookup("B")
	require.Equal(t, "first", v)
	_, ok = env.Lookup("D")
	require.False(t, ok)
}

func TestDotEnv(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vm.env")
	require.NoError(t, os.WriteFile(path, []byte("VMNAME=box\nVMGRAPHICS=y\n"), 0o600))

	env, err := DotEnv(path)
	require.NoError(t, err)
	require.Equal(t, "box", env["VMNAME"])

	_, err = DotEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.IsType(t, EnvFileError{}, err)
}

func TestEchoMasksSecrets(t *testing.T) {
	t.Parallel()

	spec := Spec{Name: "VMPASS", Kind: KindString, Default: "debian", Secret: true}
	require.Equal(t, "VMPASS=********", Echo(spec, Value{Kind: KindString, Str: "hunter2"}))
	require.Equal(t, "VMSSHD=1", Echo(Spec{Name: "VMSSHD"}, Value{Kind: KindBoolean, Bool: true}))
}

func TestResolverMasksRejectedSecretOverride(t *testing.T) {
	t.Parallel()

	spec := Spec{Name: "VMPASS", Kind: KindInteger, Default: 1, Secret: true}
	r := NewResolver(MapEnv{"VMPASS": "hunter2"})

	_, _, err := r.Resolve(spec, nil)
	var overrideErr OverrideError
	require.ErrorAs(t, err, &overrideErr)
	require.Equal(t, "********", overrideErr.Value)
	require.NotContains(t, err.Error(), "hunter2")
}
