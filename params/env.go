package params

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Env is a case-sensitive source of override strings.
type Env interface {
	Lookup(name string) (string, bool)
}

// EnvFunc adapts a lookup function into an Env.
type EnvFunc func(name string) (string, bool)

// Lookup implements Env.
func (f EnvFunc) Lookup(name string) (string, bool) {
	if f == nil {
		return "", false
	}
	return f(name)
}

// OSEnv reads overrides from the process environment.
func OSEnv() Env {
	return EnvFunc(os.LookupEnv)
}

// MapEnv serves overrides from a fixed map.
type MapEnv map[string]string

// Lookup implements Env.
func (m MapEnv) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// DotEnv loads a dotenv-formatted override file.
func DotEnv(path string) (MapEnv, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, EnvFileError{Path: path, Err: err}
	}
	return MapEnv(values), nil
}

// Layered consults each source in order and returns the first non-blank value.
func Layered(sources ...Env) Env {
	return EnvFunc(func(name string) (string, bool) {
		for _, src := range sources {
			if src == nil {
				continue
			}
			if v, ok := Override(src, name); ok {
				return v, true
			}
		}
		return "", false
	})
}

// Override returns the trimmed override for name, reporting false when the
// source has no entry or only whitespace.
func Override(env Env, name string) (string, bool) {
	if env == nil {
		return "", false
	}
	raw, ok := env.Lookup(name)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	return raw, true
}
