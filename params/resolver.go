package params

import "strings"

// Source records where a resolved value came from.
type Source int

const (
	SourceOverride Source = iota + 1
	SourceInteractive
)

func (s Source) String() string {
	switch s {
	case SourceOverride:
		return "override"
	case SourceInteractive:
		return "interactive"
	default:
		return "unknown"
	}
}

// Resolver applies override-then-answer resolution for a single spec at a time.
type Resolver struct {
	env Env
}

// NewResolver constructs a Resolver; a nil env means no overrides.
func NewResolver(env Env) *Resolver {
	return &Resolver{env: env}
}

// Resolve returns the value for spec. An override takes precedence and skips
// the answer entirely. Without an override, answer is the operator's raw line
// (nil when none has been collected yet, which yields NeedsInputError).
//
// Parse failures of an override come back as OverrideError and must be treated
// as fatal; parse failures of an answer come back as ParseError so the caller
// can ask again.
func (r *Resolver) Resolve(spec Spec, answer *string) (Value, Source, error) {
	if raw, ok := Override(r.env, spec.Name); ok {
		v, err := Parse(spec, raw)
		if err != nil {
			shown := raw
			if spec.Secret {
				shown = mask(raw)
			}
			return Value{}, SourceOverride, OverrideError{Name: spec.Name, Value: shown, Err: err}
		}
		return v, SourceOverride, nil
	}
	if answer == nil {
		return Value{}, SourceInteractive, NeedsInputError{Name: spec.Name}
	}
	v, err := Parse(spec, strings.TrimSpace(*answer))
	if err != nil {
		return Value{}, SourceInteractive, err
	}
	return v, SourceInteractive, nil
}
