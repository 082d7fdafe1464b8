package params

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var (
	truthy = map[string]struct{}{"y": {}, "yes": {}, "t": {}, "true": {}, "1": {}}
	falsy  = map[string]struct{}{"n": {}, "no": {}, "f": {}, "false": {}, "0": {}}
)

// ParseBool matches the truthy/falsy token sets case-insensitively.
func ParseBool(s string) (bool, bool) {
	token := strings.ToLower(s)
	if _, ok := truthy[token]; ok {
		return true, true
	}
	if _, ok := falsy[token]; ok {
		return false, true
	}
	return false, false
}

// ParseInt parses a base-10 integer.
func ParseInt(s string) (int, bool) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Parse converts raw input into a Value. Raw is trimmed; an empty raw string is
// replaced by the spec default before parsing.
func Parse(spec Spec, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = spec.DefaultString()
	}

	var value Value
	switch spec.Kind {
	case KindBoolean:
		b, ok := ParseBool(raw)
		if !ok {
			return Value{}, ParseError{Name: spec.Name, Input: raw, Reason: "Invalid boolean"}
		}
		value = Value{Kind: KindBoolean, Bool: b}
	case KindInteger:
		i, ok := ParseInt(raw)
		if !ok {
			return Value{}, ParseError{Name: spec.Name, Input: raw, Reason: "Invalid integer"}
		}
		value = Value{Kind: KindInteger, Int: i}
	case KindEnum:
		if !spec.allows(raw) {
			return Value{}, ParseError{Name: spec.Name, Input: raw, Reason: "Invalid choice"}
		}
		value = Value{Kind: KindEnum, Str: raw}
	case KindString, "":
		value = Value{Kind: KindString, Str: raw}
	default:
		return Value{}, SpecError{Name: spec.Name, Reason: fmt.Sprintf("unknown kind %q", spec.Kind)}
	}

	if err := checkRules(spec, raw, value); err != nil {
		return Value{}, err
	}
	return value, nil
}

func checkRules(spec Spec, raw string, value Value) error {
	if spec.Rules != "" {
		if err := validate.Var(value.Any(), spec.Rules); err != nil {
			return ParseError{Name: spec.Name, Input: raw, Reason: ruleReason(err)}
		}
	}
	if spec.Check != nil {
		if err := spec.Check(value); err != nil {
			return ParseError{Name: spec.Name, Input: raw, Reason: err.Error()}
		}
	}
	return nil
}

func ruleReason(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("Invalid value (%s=%s)", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("Invalid value (%s)", fe.Tag())
	}
	return "Invalid value"
}
