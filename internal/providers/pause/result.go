package pause

import "time"

const timeLayout = "2006-01-02 15:04:05.000000"

// Result is the structured record of one completed pause, finalized in the
// cleanup phase after the terminal has been restored.
type Result struct {
	UserInput    string
	Start        time.Time
	Stop         time.Time
	Delta        int // elapsed whole seconds
	StatusLine   string
	Echo         bool
	TimedOut     bool
	InvocationID string
}

func (r *Result) toData() map[string]interface{} {
	return map[string]interface{}{
		"user_input":    r.UserInput,
		"start":         r.Start.Format(timeLayout),
		"stop":          r.Stop.Format(timeLayout),
		"delta":         r.Delta,
		"stdout":        r.StatusLine,
		"echo":          r.Echo,
		"timed_out":     r.TimedOut,
		"invocation_id": r.InvocationID,
	}
}
