package console

import "errors"

// ErrNoInput is returned when the input channel closes while a prompt is
// waiting for an answer.
var ErrNoInput = errors.New("console: input closed before a value was entered")
