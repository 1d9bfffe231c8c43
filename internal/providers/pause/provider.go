package pause

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/runweave/pausekit/internal/logging"
	"github.com/runweave/pausekit/internal/monitoring"
	"github.com/runweave/pausekit/internal/term"
	"github.com/runweave/pausekit/internal/types"
)

// Provider implements the interactive pause operation
type Provider struct {
	in      *os.File
	out     *os.File
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// Option configures a Provider.
type Option func(*Provider)

// WithStreams sets the controlling input and output streams. Defaults are
// os.Stdin and os.Stdout; hosts usually pass an opened /dev/tty instead so
// timeouts work even when stdin is not pollable.
func WithStreams(in, out *os.File) Option {
	return func(p *Provider) {
		p.in = in
		p.out = out
	}
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(p *Provider) {
		p.log = log
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(p *Provider) {
		p.metrics = m
	}
}

// NewProvider creates a new pause provider
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		in:      os.Stdin,
		out:     os.Stdout,
		log:     logging.NewDefault().Named("pause"),
		metrics: monitoring.NewMetrics(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "pause",
		Name:        "Interactive Pause",
		Description: "Suspends an automation run for operator input, a bounded duration, or both, with interrupt-driven early continue and abort",
		Category:    types.CategoryAutomation,
		Capabilities: []string{
			"wait",
			"prompt",
			"timeout",
			"hidden_input",
			"interrupt",
		},
		Tools: p.getTools(),
	}
}

// Execute routes to appropriate operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, runCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "pause.run":
		return p.run(ctx, params, runCtx)
	default:
		return nil, fmt.Errorf("unknown tool: %s", toolID)
	}
}

func (p *Provider) getTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "pause.run",
			Name:        "Pause Run",
			Description: "Pause the run until enter is pressed or a timeout elapses; Ctrl+C then C continues early, Ctrl+C then A aborts the run",
			Parameters: []types.Parameter{
				{
					Name:        "prompt",
					Type:        "string",
					Description: "Text to use for the prompt message",
					Required:    false,
				},
				{
					Name:        "seconds",
					Type:        "number",
					Description: "A positive number of seconds to pause for; values below 1 wait 1 second",
					Required:    false,
				},
				{
					Name:        "timeout_answer",
					Type:        "string",
					Description: "Answer substituted for the captured input when the timeout fires; used together with prompt and seconds",
					Required:    false,
				},
				{
					Name:        "echo",
					Type:        "boolean",
					Description: "Whether typed characters are shown. Defaults to true",
					Required:    false,
				},
				{
					Name:        "task_name",
					Type:        "string",
					Description: "Task display name used in the prompt header",
					Required:    false,
				},
			},
			Returns: "pause_result",
		},
	}
}

// run owns the full lifecycle of one pause: option resolution, terminal
// mode transition, the read loop, and unconditional cleanup.
func (p *Provider) run(ctx context.Context, params map[string]interface{}, runCtx *types.Context) (*types.Result, error) {
	invocationID := uuid.NewString()
	log := p.log.With(zap.String("invocation_id", invocationID))

	if runCtx != nil && runCtx.TaskName != nil {
		params = withDefaultTaskName(params, *runCtx.TaskName)
	}

	cfg, err := resolveConfig(params)
	if err != nil {
		log.Error("pause options rejected", zap.Error(err))
		p.metrics.RecordPause(monitoring.OutcomeConfigError, 0)
		msg := err.Error()
		return &types.Result{Success: false, Error: &msg}, nil
	}

	interactive := term.IsTerminal(p.in)

	// A timed pause needs deadline support on the input handle; find out
	// before raw mode so a failure leaves the terminal untouched.
	if cfg.HasTimeout && interactive {
		if derr := p.in.SetReadDeadline(time.Time{}); derr != nil {
			log.Error("input stream does not support read deadlines", zap.Error(derr))
			p.metrics.RecordPause(monitoring.OutcomeError, 0)
			msg := fmt.Sprintf("cannot enforce pause timeout on this input stream: %v", derr)
			return &types.Result{Success: false, Error: &msg}, nil
		}
	}

	start := time.Now()
	log.Info("pause starting",
		zap.Bool("echo", cfg.Echo),
		zap.Bool("timed", cfg.HasTimeout),
		zap.Int("seconds", cfg.Seconds),
		zap.Bool("custom_prompt", cfg.HasPrompt),
	)

	p.metrics.PausesActive.Inc()
	defer p.metrics.PausesActive.Dec()

	p.announce(cfg)

	var (
		input       []byte
		timedOut    bool
		substituted bool
		runErr      error
	)

	if interactive {
		input, timedOut, substituted, runErr = p.runInteractive(cfg, log)
	} else {
		log.Warn("not waiting for response to prompt as input stream is not interactive")
		input, timedOut, substituted, runErr = p.runNonInteractive(ctx, cfg)
	}

	duration := time.Since(start)

	if runErr != nil {
		if errors.Is(runErr, ErrUserAbort) {
			log.Warn("pause aborted by user", zap.Duration("duration", duration))
			p.metrics.RecordPause(monitoring.OutcomeAborted, duration)
			return nil, ErrUserAbort
		}
		log.Error("pause failed", zap.Error(runErr), zap.Duration("duration", duration))
		p.metrics.RecordPause(monitoring.OutcomeError, duration)
		return nil, runErr
	}

	outcome := monitoring.OutcomeCompleted
	switch {
	case !interactive:
		outcome = monitoring.OutcomeNonInteractive
	case timedOut:
		outcome = monitoring.OutcomeTimedOut
	}
	p.metrics.RecordPause(outcome, duration)

	res := &Result{
		UserInput:    string(input),
		Start:        start,
		Stop:         start.Add(duration),
		Delta:        int(duration.Seconds()),
		StatusLine:   statusLine(duration, substituted),
		Echo:         cfg.Echo,
		TimedOut:     timedOut,
		InvocationID: invocationID,
	}

	log.Info("pause finished",
		zap.String("outcome", outcome),
		zap.Duration("duration", duration),
		zap.Int("input_bytes", len(input)),
	)

	return &types.Result{
		Success: true,
		Data:    res.toData(),
	}, nil
}

// runInteractive acquires the raw-mode session, arms the timeout, and hands
// control to the read loop. Restoration runs on every exit path, including
// abort, before any error reaches the caller.
func (p *Provider) runInteractive(cfg *Config, log *logging.Logger) (input []byte, timedOut, substituted bool, err error) {
	session, err := term.Open(p.in, p.out, cfg.Echo)
	if err != nil {
		if errors.Is(err, term.ErrNotTerminal) {
			log.Warn("not waiting for response to prompt as input stream is not interactive")
			return nil, false, false, nil
		}
		return nil, false, false, fmt.Errorf("terminal mode transition: %w", err)
	}
	defer func() {
		if rerr := session.Restore(); rerr != nil {
			log.Error("terminal restore failed", zap.Error(rerr))
			if err == nil {
				err = rerr
			}
		}
	}()

	if cfg.HasTimeout {
		if aerr := session.Arm(time.Duration(cfg.Timeout()) * time.Second); aerr != nil {
			return nil, false, false, fmt.Errorf("arming pause timeout: %w", aerr)
		}
		defer session.Disarm()
	}

	c := &controller{cfg: cfg, session: session, log: log}
	input, err = c.run()
	if err != nil {
		return nil, false, false, err
	}
	return input, c.timedOut, c.substituted, nil
}

// runNonInteractive handles a detached input stream: an untimed pause
// returns immediately with empty input, a timed one waits out the clamped
// duration (cancellable through ctx) and then resolves the timeout the same
// way the interactive path would.
func (p *Provider) runNonInteractive(ctx context.Context, cfg *Config) ([]byte, bool, bool, error) {
	if !cfg.HasTimeout {
		return nil, false, false, nil
	}

	select {
	case <-time.After(time.Duration(cfg.Timeout()) * time.Second):
	case <-ctx.Done():
		return nil, false, false, ctx.Err()
	}

	if cfg.HasPrompt && cfg.HasTimeoutAnswer {
		return []byte(cfg.TimeoutAnswer), true, true, nil
	}
	return nil, true, false, nil
}

// announce writes the control hints and prompt, before any terminal mode
// change, so ordinary line discipline still applies to them.
func (p *Provider) announce(cfg *Config) {
	suffix := ""
	if !cfg.Echo {
		suffix = hiddenSuffix
	}

	if cfg.HasTimeout && !cfg.HasPrompt {
		fmt.Fprintf(p.out, "Pausing for %d seconds%s\n", cfg.Timeout(), suffix)
		fmt.Fprintln(p.out, "(ctrl+C then 'C' = continue early, ctrl+C then 'A' = abort)")
		return
	}

	if cfg.HasTimeout {
		fmt.Fprintf(p.out, "Pausing for %d seconds!\n", cfg.Timeout())
	}
	fmt.Fprintln(p.out, cfg.Prompt)
}

func statusLine(d time.Duration, substituted bool) string {
	line := fmt.Sprintf("Paused for %.2f seconds", d.Seconds())
	if substituted {
		line += " (timeout answer substituted)"
	}
	return line
}

// withDefaultTaskName copies params with the engine-supplied task name
// filled in, without mutating the caller's map.
func withDefaultTaskName(params map[string]interface{}, taskName string) map[string]interface{} {
	if _, ok := params["task_name"]; ok {
		return params
	}
	out := make(map[string]interface{}, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	out["task_name"] = taskName
	return out
}
