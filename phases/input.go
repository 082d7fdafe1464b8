package phases

import (
	"fmt"
	"strconv"
)

func inputKey(phaseID, inputID string) string {
	return fmt.Sprintf("phase:%s:input:%s", phaseID, inputID)
}

// SetInput stores an input value for a given phase.
func SetInput(ctx *Context, phaseID, inputID string, value any) {
	if ctx == nil {
		return
	}
	ctx.Set(inputKey(phaseID, inputID), value)
}

// GetInput retrieves an input value for a given phase.
func GetInput(ctx *Context, phaseID, inputID string) (any, bool) {
	if ctx == nil {
		return nil, false
	}
	return ctx.Get(inputKey(phaseID, inputID))
}

// ClearInput drops a stored answer so the next run asks again.
func ClearInput(ctx *Context, phaseID, inputID string) {
	if ctx == nil {
		return
	}
	ctx.Delete(inputKey(phaseID, inputID))
}

// InputString returns the stored answer as raw text. Handlers may store
// typed values; those are rendered the way an operator would type them.
func InputString(ctx *Context, phaseID, inputID string) (string, bool) {
	val, ok := GetInput(ctx, phaseID, inputID)
	if !ok || val == nil {
		return "", false
	}
	switch v := val.(type) {
	case string:
		return v, true
	case bool:
		if v {
			return "1", true
		}
		return "0", true
	case int:
		return strconv.Itoa(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}
