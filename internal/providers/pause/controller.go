package pause

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/runweave/pausekit/internal/logging"
	"github.com/runweave/pausekit/internal/term"
)

// state is the read loop's explicit state. The outer key wait and the
// interrupt dialog share the same blocking read; modeling both as states of
// one machine keeps every suspension point and cancellation path visible.
type state int

const (
	stateWaitingKey state = iota
	stateInterruptDialog
	stateDone
	stateAborted
	stateTimedOut
)

const dialogPrompt = "Press 'C' to continue the run or 'A' to abort \r"

// controller drives one pause invocation's read loop over an acquired
// raw-mode session.
type controller struct {
	cfg     *Config
	session *term.Session
	log     *logging.Logger

	input       []byte
	state       state
	timedOut    bool
	substituted bool
}

// run loops until a terminal state is reached. It returns the captured
// input; ErrUserAbort when the operator aborted. The caller owns session
// acquisition and restoration.
func (c *controller) run() ([]byte, error) {
	c.state = stateWaitingKey
	for {
		switch c.state {
		case stateWaitingKey:
			c.waitKey()
		case stateInterruptDialog:
			if err := c.dialog(); err != nil {
				return nil, err
			}
		case stateTimedOut:
			c.timedOut = true
			c.resolveTimeout()
			return c.input, nil
		case stateDone:
			return c.input, nil
		case stateAborted:
			return nil, ErrUserAbort
		}
	}
}

// waitKey reads one byte and applies the per-character transition rules.
func (c *controller) waitKey() {
	b, err := c.session.ReadByte()
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			c.state = stateTimedOut
			return
		}
		// EOF or a closed descriptor: nobody is there to answer.
		c.log.Warn("not waiting for response to prompt as input stream is exhausted", zap.Error(err))
		c.input = nil
		c.state = stateDone
		return
	}

	switch {
	case b == c.session.Interrupt():
		c.session.ClearLine()
		c.session.Disarm()
		c.state = stateInterruptDialog
	case b == '\r' || b == '\n':
		c.session.ClearLine()
		c.state = stateDone
	case c.session.IsErase(b):
		if n := len(c.input); n > 0 {
			c.input = c.input[:n-1]
		}
		c.session.ClearLine()
		if c.cfg.Echo {
			c.session.Write(c.input)
		}
	default:
		c.input = append(c.input, b)
	}
}

// dialog blocks on single bytes until the operator picks continue or abort.
// Any other key is ignored. Anything already accumulated survives a
// continue.
func (c *controller) dialog() error {
	c.session.Write([]byte(dialogPrompt))
	for {
		b, err := c.session.ReadByte()
		if err != nil {
			return fmt.Errorf("interrupt dialog read: %w", err)
		}
		switch b {
		case 'c', 'C':
			c.session.ClearLine()
			c.state = stateDone
			return nil
		case 'a', 'A':
			c.session.ClearLine()
			c.state = stateAborted
			return nil
		}
	}
}

// resolveTimeout turns deadline expiry into its configured outcome: answer
// substitution when a prompt and timeout answer are both set, otherwise the
// silent end of a duration-bounded wait.
func (c *controller) resolveTimeout() {
	if c.cfg.HasPrompt && c.cfg.HasTimeoutAnswer {
		c.input = []byte(c.cfg.TimeoutAnswer)
		c.substituted = true
		c.session.ClearLine()
		fmt.Fprintf(c.session, "Timeout exceeded, continuing with answer: %s\r\n", c.cfg.TimeoutAnswer)
	}
}
