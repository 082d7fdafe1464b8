// Package params implements typed parameter specifications and the resolution
// rules shared by every prompt: environment-style overrides first, then the
// operator's answer, with default substitution and kind-aware parsing.
package params

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies how a raw string is parsed into a Value.
type Kind string

const (
	KindString  Kind = "string"
	KindBoolean Kind = "boolean"
	KindInteger Kind = "integer"
	KindEnum    Kind = "enumerated"
)

// Spec is the static descriptor for one configurable value.
type Spec struct {
	// Name is the case-sensitive override key, e.g. VMNAME.
	Name string
	// Prompt is shown to the operator when no override is supplied.
	Prompt string
	// Default must be a string, bool or int matching Kind.
	Default any
	Kind    Kind
	// Choices lists the allowed values for KindEnum, in display order.
	Choices []string
	// Rules is an optional go-playground/validator tag applied to the parsed value.
	Rules string
	// Check runs after Rules; a non-nil error rejects the value.
	Check func(Value) error
	// Secret values are masked when echoed.
	Secret bool
}

// Validate reports whether the spec is internally consistent.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return SpecError{Name: s.Name, Reason: "name must not be empty"}
	}
	switch s.Kind {
	case KindString:
		if _, ok := s.Default.(string); !ok {
			return SpecError{Name: s.Name, Reason: "string parameter needs a string default"}
		}
	case KindBoolean:
		if _, ok := s.Default.(bool); !ok {
			return SpecError{Name: s.Name, Reason: "boolean parameter needs a bool default"}
		}
	case KindInteger:
		if _, ok := s.Default.(int); !ok {
			return SpecError{Name: s.Name, Reason: "integer parameter needs an int default"}
		}
	case KindEnum:
		if len(s.Choices) == 0 {
			return SpecError{Name: s.Name, Reason: "enumerated parameter needs at least one choice"}
		}
		def, ok := s.Default.(string)
		if !ok {
			return SpecError{Name: s.Name, Reason: "enumerated parameter needs a string default"}
		}
		if !s.allows(def) {
			return SpecError{Name: s.Name, Reason: fmt.Sprintf("default %q is not one of the choices", def)}
		}
	default:
		return SpecError{Name: s.Name, Reason: fmt.Sprintf("unknown kind %q", s.Kind)}
	}
	return nil
}

// DefaultString renders the default the way the operator types it.
func (s Spec) DefaultString() string {
	switch v := s.Default.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// DefaultBool returns the boolean default, false for other kinds.
func (s Spec) DefaultBool() bool {
	b, _ := s.Default.(bool)
	return b
}

func (s Spec) allows(value string) bool {
	for _, choice := range s.Choices {
		if choice == value {
			return true
		}
	}
	return false
}

// Value is a parsed parameter value.
type Value struct {
	Kind Kind
	Str  string
	Bool bool
	Int  int
}

// String renders the value for echoes: booleans as 0/1.
func (v Value) String() string {
	switch v.Kind {
	case KindBoolean:
		if v.Bool {
			return "1"
		}
		return "0"
	case KindInteger:
		return strconv.Itoa(v.Int)
	default:
		return v.Str
	}
}

// Any returns the underlying Go value (string, bool or int).
func (v Value) Any() any {
	switch v.Kind {
	case KindBoolean:
		return v.Bool
	case KindInteger:
		return v.Int
	default:
		return v.Str
	}
}

// Echo formats the NAME=value confirmation line body.
func Echo(spec Spec, v Value) string {
	if spec.Secret {
		return spec.Name + "=" + mask(v.String())
	}
	return spec.Name + "=" + v.String()
}

func mask(value string) string {
	if value == "" {
		return ""
	}
	return "********"
}
