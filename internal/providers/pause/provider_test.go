package pause

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/runweave/pausekit/internal/logging"
	"github.com/runweave/pausekit/internal/monitoring"
	"github.com/runweave/pausekit/internal/term"
	"github.com/runweave/pausekit/internal/types"
)

type pauseOutcome struct {
	result *types.Result
	err    error
}

func openPTY(t *testing.T) (ptm, pts *os.File) {
	t.Helper()
	ptm, pts, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() {
		ptm.Close()
		pts.Close()
	})
	return ptm, pts
}

func startPause(t *testing.T, in, out *os.File, params map[string]interface{}, opts ...Option) <-chan pauseOutcome {
	t.Helper()
	opts = append([]Option{WithStreams(in, out), WithLogger(logging.NewNop())}, opts...)
	p := NewProvider(opts...)

	ch := make(chan pauseOutcome, 1)
	go func() {
		res, err := p.Execute(context.Background(), "pause.run", params, nil)
		ch <- pauseOutcome{result: res, err: err}
	}()
	return ch
}

// waitRaw blocks until the pause has switched the pty to raw mode, so
// keystrokes written afterwards cannot be discarded by the stale-input
// flush.
func waitRaw(t *testing.T, pts *os.File) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		attrs, err := term.Attributes(pts)
		require.NoError(t, err)
		if attrs.Lflag&unix.ICANON == 0 {
			time.Sleep(20 * time.Millisecond)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("terminal never entered raw mode")
}

func awaitOutcome(t *testing.T, ch <-chan pauseOutcome, within time.Duration) pauseOutcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(within):
		t.Fatal("pause did not finish in time")
		return pauseOutcome{}
	}
}

func TestRunCapturesTypedInput(t *testing.T) {
	ptm, pts := openPTY(t)

	ch := startPause(t, pts, pts, map[string]interface{}{"prompt": "Provide a version"})
	waitRaw(t, pts)
	_, err := ptm.Write([]byte("hello\r"))
	require.NoError(t, err)

	o := awaitOutcome(t, ch, 5*time.Second)
	require.NoError(t, o.err)
	require.True(t, o.result.Success)

	assert.Equal(t, "hello", o.result.Data["user_input"])
	assert.Equal(t, true, o.result.Data["echo"])
	assert.Equal(t, false, o.result.Data["timed_out"])
	assert.Contains(t, o.result.Data["stdout"], "Paused for")

	_, err = time.Parse(timeLayout, o.result.Data["start"].(string))
	assert.NoError(t, err)
	_, err = time.Parse(timeLayout, o.result.Data["stop"].(string))
	assert.NoError(t, err)
}

func TestRunBackspaceEditing(t *testing.T) {
	ptm, pts := openPTY(t)

	ch := startPause(t, pts, pts, map[string]interface{}{"prompt": "input"})
	waitRaw(t, pts)
	_, err := ptm.Write([]byte("ab\x7f\x7fc\r"))
	require.NoError(t, err)

	o := awaitOutcome(t, ch, 5*time.Second)
	require.NoError(t, o.err)
	require.True(t, o.result.Success)
	assert.Equal(t, "c", o.result.Data["user_input"])
}

func TestRunBackspaceOnEmptyInput(t *testing.T) {
	ptm, pts := openPTY(t)

	ch := startPause(t, pts, pts, map[string]interface{}{"prompt": "input"})
	waitRaw(t, pts)
	_, err := ptm.Write([]byte("\x7f\x7fok\r"))
	require.NoError(t, err)

	o := awaitOutcome(t, ch, 5*time.Second)
	require.NoError(t, o.err)
	assert.Equal(t, "ok", o.result.Data["user_input"])
}

func TestRunInterruptAbort(t *testing.T) {
	ptm, pts := openPTY(t)

	before, err := term.Attributes(pts)
	require.NoError(t, err)

	ch := startPause(t, pts, pts, map[string]interface{}{"prompt": "input"})
	waitRaw(t, pts)
	_, err = ptm.Write([]byte("\x03a"))
	require.NoError(t, err)

	o := awaitOutcome(t, ch, 5*time.Second)
	require.ErrorIs(t, o.err, ErrUserAbort)
	assert.Nil(t, o.result, "abort must not produce a result")

	after, err := term.Attributes(pts)
	require.NoError(t, err)
	assert.Equal(t, *before, *after, "terminal must be restored before the abort propagates")
}

func TestRunInterruptContinueKeepsInput(t *testing.T) {
	ptm, pts := openPTY(t)

	ch := startPause(t, pts, pts, map[string]interface{}{"prompt": "input"})
	waitRaw(t, pts)
	_, err := ptm.Write([]byte("ab\x03C"))
	require.NoError(t, err)

	o := awaitOutcome(t, ch, 5*time.Second)
	require.NoError(t, o.err)
	require.True(t, o.result.Success)
	assert.Equal(t, "ab", o.result.Data["user_input"])
}

func TestRunInterruptDialogIgnoresOtherKeys(t *testing.T) {
	ptm, pts := openPTY(t)

	ch := startPause(t, pts, pts, map[string]interface{}{"prompt": "input"})
	waitRaw(t, pts)
	_, err := ptm.Write([]byte("\x03xq!c"))
	require.NoError(t, err)

	o := awaitOutcome(t, ch, 5*time.Second)
	require.NoError(t, o.err)
	require.True(t, o.result.Success)
	assert.Equal(t, "", o.result.Data["user_input"])
}

func TestRunTimeoutSubstitutesAnswer(t *testing.T) {
	_, pts := openPTY(t)

	ch := startPause(t, pts, pts, map[string]interface{}{
		"prompt":         "X",
		"timeout_answer": "Y",
		"seconds":        1,
	})

	o := awaitOutcome(t, ch, 10*time.Second)
	require.NoError(t, o.err)
	require.True(t, o.result.Success)

	assert.Equal(t, "Y", o.result.Data["user_input"])
	assert.Equal(t, true, o.result.Data["timed_out"])
	assert.Contains(t, o.result.Data["stdout"], "timeout answer substituted")
}

func TestRunDurationOnly(t *testing.T) {
	_, pts := openPTY(t)

	start := time.Now()
	ch := startPause(t, pts, pts, map[string]interface{}{"seconds": 1})

	o := awaitOutcome(t, ch, 10*time.Second)
	require.NoError(t, o.err)
	require.True(t, o.result.Success)

	assert.GreaterOrEqual(t, time.Since(start), time.Second)
	assert.Equal(t, "", o.result.Data["user_input"])
	assert.Equal(t, true, o.result.Data["timed_out"])
	assert.NotContains(t, o.result.Data["stdout"], "substituted")
}

func TestRunPromptTimeoutWithoutAnswerKeepsTypedInput(t *testing.T) {
	ptm, pts := openPTY(t)

	ch := startPause(t, pts, pts, map[string]interface{}{
		"prompt":  "version",
		"seconds": 1,
	})
	waitRaw(t, pts)
	// Typed but never confirmed with enter; the timeout returns it as-is.
	_, err := ptm.Write([]byte("ab"))
	require.NoError(t, err)

	o := awaitOutcome(t, ch, 10*time.Second)
	require.NoError(t, o.err)
	require.True(t, o.result.Success)
	assert.Equal(t, "ab", o.result.Data["user_input"])
	assert.Equal(t, true, o.result.Data["timed_out"])
}

func TestRunHiddenInputIsNotEchoed(t *testing.T) {
	ptm, pts := openPTY(t)

	// Drain everything the pause writes to the terminal.
	var mu sync.Mutex
	var echoed bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 256)
		for {
			n, err := ptm.Read(buf)
			if n > 0 {
				mu.Lock()
				echoed.Write(buf[:n])
				mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()

	ch := startPause(t, pts, pts, map[string]interface{}{
		"prompt": "Enter a secret",
		"echo":   false,
	})
	waitRaw(t, pts)
	_, err := ptm.Write([]byte("zq9\r"))
	require.NoError(t, err)

	o := awaitOutcome(t, ch, 5*time.Second)
	require.NoError(t, o.err)
	assert.Equal(t, "zq9", o.result.Data["user_input"])
	assert.Equal(t, false, o.result.Data["echo"])

	ptm.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	<-done
	mu.Lock()
	defer mu.Unlock()
	assert.NotContains(t, echoed.String(), "zq9", "hidden input must not appear on the terminal")
}

func TestRunNonInteractiveReturnsImmediately(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	defer outR.Close()
	defer outW.Close()

	ch := startPause(t, r, outW, map[string]interface{}{"prompt": "anyone there?"})

	o := awaitOutcome(t, ch, time.Second)
	require.NoError(t, o.err)
	require.True(t, o.result.Success)
	assert.Equal(t, "", o.result.Data["user_input"])
}

func TestRunNonInteractiveTimedSubstitutesAnswer(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	defer outR.Close()
	defer outW.Close()

	ch := startPause(t, r, outW, map[string]interface{}{
		"prompt":         "version",
		"timeout_answer": "1.2.5",
		"seconds":        1,
	})

	o := awaitOutcome(t, ch, 10*time.Second)
	require.NoError(t, o.err)
	require.True(t, o.result.Success)
	assert.Equal(t, "1.2.5", o.result.Data["user_input"])
	assert.Equal(t, true, o.result.Data["timed_out"])
}

func TestRunConfigErrorLeavesTerminalUntouched(t *testing.T) {
	_, pts := openPTY(t)

	before, err := term.Attributes(pts)
	require.NoError(t, err)

	ch := startPause(t, pts, pts, map[string]interface{}{"seconds": "not-a-number"})

	o := awaitOutcome(t, ch, time.Second)
	require.NoError(t, o.err)
	require.False(t, o.result.Success)
	require.NotNil(t, o.result.Error)
	assert.Contains(t, *o.result.Error, "seconds")

	after, err := term.Attributes(pts)
	require.NoError(t, err)
	assert.Equal(t, *before, *after, "a rejected configuration must not touch the terminal")
}

func TestRunRestoresTerminal(t *testing.T) {
	ptm, pts := openPTY(t)

	before, err := term.Attributes(pts)
	require.NoError(t, err)

	ch := startPause(t, pts, pts, map[string]interface{}{"prompt": "input", "echo": false})
	waitRaw(t, pts)
	_, err = ptm.Write([]byte("\r"))
	require.NoError(t, err)

	o := awaitOutcome(t, ch, 5*time.Second)
	require.NoError(t, o.err)

	after, err := term.Attributes(pts)
	require.NoError(t, err)
	assert.Equal(t, *before, *after)
}

func TestExecuteUnknownTool(t *testing.T) {
	p := NewProvider(WithLogger(logging.NewNop()))
	_, err := p.Execute(context.Background(), "pause.sleep", nil, nil)
	require.Error(t, err)
}

func TestDefinition(t *testing.T) {
	p := NewProvider(WithLogger(logging.NewNop()))
	def := p.Definition()

	assert.Equal(t, "pause", def.ID)
	assert.Equal(t, types.CategoryAutomation, def.Category)
	require.Len(t, def.Tools, 1)
	assert.Equal(t, "pause.run", def.Tools[0].ID)
}

func TestRunRecordsMetrics(t *testing.T) {
	ptm, pts := openPTY(t)
	m := monitoring.NewMetrics()

	ch := startPause(t, pts, pts, map[string]interface{}{"prompt": "input"}, WithMetrics(m))
	waitRaw(t, pts)
	_, err := ptm.Write([]byte("\r"))
	require.NoError(t, err)

	o := awaitOutcome(t, ch, 5*time.Second)
	require.NoError(t, o.err)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.PausesTotal.WithLabelValues(monitoring.OutcomeCompleted)))

	// A rejected configuration counts separately.
	p := NewProvider(WithStreams(pts, pts), WithLogger(logging.NewNop()), WithMetrics(m))
	_, err = p.Execute(context.Background(), "pause.run", map[string]interface{}{"echo": "maybe"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.PausesTotal.WithLabelValues(monitoring.OutcomeConfigError)))
}

func TestRunUsesTaskNameFromContext(t *testing.T) {
	taskName := "wait for operator"
	cfg, err := resolveConfig(withDefaultTaskName(map[string]interface{}{}, taskName))
	require.NoError(t, err)
	assert.Contains(t, cfg.Prompt, "[wait for operator]")
}
