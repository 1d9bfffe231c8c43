package pause

import (
	"errors"
	"fmt"
)

// ErrUserAbort is returned when the operator chooses abort in the interrupt
// dialog. The invoking engine must treat it as run termination, not as a
// retryable failure. Cleanup has already run by the time it is returned.
var ErrUserAbort = errors.New("user requested abort")

// ConfigError reports a malformed option value. It is detected before any
// terminal mutation, so an invocation failing this way has no side effects.
type ConfigError struct {
	Option string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %q option: %v", e.Option, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
