package pause

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	hiddenSuffix      = " (output is hidden)"
	defaultPromptText = "Press enter to continue, Ctrl+C to interrupt"
	defaultTaskName   = "pause"
)

// Config is the resolved, immutable configuration of one pause invocation.
type Config struct {
	// Prompt is the fully resolved display prompt, including the task name
	// header and the hidden-output suffix when echo is off.
	Prompt string
	// HasPrompt records whether the caller supplied a custom prompt, which
	// changes both the announce phase and timeout resolution.
	HasPrompt bool

	// Seconds bounds the wait when HasTimeout is set; clamped to >= 1.
	Seconds    int
	HasTimeout bool

	TimeoutAnswer    string
	HasTimeoutAnswer bool

	Echo     bool
	TaskName string
}

// Timeout returns the clamped wait bound.
func (c *Config) Timeout() int {
	if c.Seconds < 1 {
		return 1
	}
	return c.Seconds
}

// resolveConfig validates and resolves the raw option mapping. It is pure:
// no terminal state is touched, and a malformed `echo` or `seconds` value
// fails here with a ConfigError before anything else happens.
func resolveConfig(params map[string]interface{}) (*Config, error) {
	cfg := &Config{
		Echo:     true,
		TaskName: defaultTaskName,
	}

	if v, ok := params["task_name"]; ok {
		if s := strings.TrimSpace(fmt.Sprintf("%v", v)); s != "" {
			cfg.TaskName = s
		}
	}

	if v, ok := params["echo"]; ok {
		echo, err := parseBool(v)
		if err != nil {
			return nil, &ConfigError{Option: "echo", Err: err}
		}
		cfg.Echo = echo
	}

	suffix := ""
	if !cfg.Echo {
		suffix = hiddenSuffix
	}

	if v, ok := params["prompt"]; ok {
		cfg.HasPrompt = true
		cfg.Prompt = fmt.Sprintf("[%s]\n%v%s:", cfg.TaskName, v, suffix)
	} else {
		cfg.Prompt = fmt.Sprintf("[%s]\n%s%s:", cfg.TaskName, defaultPromptText, suffix)
	}

	if v, ok := params["timeout_answer"]; ok {
		cfg.HasTimeoutAnswer = true
		cfg.TimeoutAnswer = fmt.Sprintf("%v", v)
	}

	if v, ok := params["seconds"]; ok {
		seconds, err := parseSeconds(v)
		if err != nil {
			return nil, &ConfigError{Option: "seconds", Err: err}
		}
		cfg.HasTimeout = true
		cfg.Seconds = seconds
	}

	return cfg, nil
}

// parseBool accepts the spellings automation callers actually use: native
// bools, yes/no style strings, and 0/1 numerics.
func parseBool(v interface{}) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "on", "y", "1":
			return true, nil
		case "false", "no", "off", "n", "0":
			return false, nil
		}
		return false, fmt.Errorf("cannot interpret %q as a boolean", b)
	case int:
		switch b {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	case float64:
		switch b {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	}
	return false, fmt.Errorf("cannot interpret %v (%T) as a boolean", v, v)
}

func parseSeconds(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("non-integer value given for pause duration: %q", n)
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("non-integer value given for pause duration: %v (%T)", v, v)
}
