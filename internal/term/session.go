//go:build linux || darwin

package term

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
	xterm "golang.org/x/term"
)

// ErrNotTerminal is returned by Open when the input stream is not attached
// to an interactive terminal.
var ErrNotTerminal = errors.New("input stream is not a terminal")

const defaultInterrupt = 0x03 // Ctrl+C

var defaultErase = []byte{0x7f, 0x08}

// clearSequence is cursor-to-line-start followed by clear-to-end-of-line,
// the terminfo cr + el pair.
var clearSequence = []byte("\r\x1b[K")

// Session is an exclusively owned raw-mode terminal. The snapshot taken at
// Open is the sole input to Restore.
type Session struct {
	in  *os.File
	out *os.File

	saved    *unix.Termios // input snapshot, never nil
	savedOut *unix.Termios // output snapshot, nil when output was left alone

	intr  byte
	erase []byte
}

// All ioctls go through SyscallConn so the descriptor stays registered with
// the runtime poller. File.Fd() switches the descriptor to blocking mode,
// which would make SetReadDeadline a silent no-op and leave ReadByte stuck
// in an uncancellable read.
func controlFD(f *os.File, fn func(fd int) error) error {
	conn, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var opErr error
	if cerr := conn.Control(func(fd uintptr) {
		opErr = fn(int(fd))
	}); cerr != nil {
		return cerr
	}
	return opErr
}

func getTermios(f *os.File) (*unix.Termios, error) {
	var t *unix.Termios
	err := controlFD(f, func(fd int) error {
		var gerr error
		t, gerr = unix.IoctlGetTermios(fd, ioctlReadTermios)
		return gerr
	})
	return t, err
}

func setTermios(f *os.File, req uint, t *unix.Termios) error {
	return controlFD(f, func(fd int) error {
		return unix.IoctlSetTermios(fd, req, t)
	})
}

// IsTerminal reports whether f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	ok := false
	controlFD(f, func(fd int) error {
		ok = xterm.IsTerminal(fd)
		return nil
	})
	return ok
}

// Open snapshots the terminal attributes of in and switches it to raw mode.
// When echo is true, character echo is re-enabled on top of raw mode so
// typed characters still appear. The output stream is switched to raw mode
// only if it is itself a terminal; a redirected output is left untouched.
// Pending input buffered before this point is flushed so stale keystrokes
// (a leftover newline from the invoking script, typically) are not read as
// part of the prompt.
func Open(in, out *os.File, echo bool) (*Session, error) {
	if !IsTerminal(in) {
		return nil, ErrNotTerminal
	}

	saved, err := getTermios(in)
	if err != nil {
		return nil, fmt.Errorf("snapshot terminal attributes: %w", err)
	}

	s := &Session{
		in:    in,
		out:   out,
		saved: saved,
	}

	// Resolve the driver's interrupt and erase characters before mutating
	// anything; fall back to Ctrl+C and {DEL, BS} when disabled.
	s.intr = saved.Cc[unix.VINTR]
	if s.intr == 0 || s.intr == 0xff {
		s.intr = defaultInterrupt
	}
	if v := saved.Cc[unix.VERASE]; v != 0 && v != 0xff {
		s.erase = []byte{v}
	} else {
		s.erase = defaultErase
	}

	raw := *saved
	makeRaw(&raw)
	if echo {
		raw.Lflag |= unix.ECHO
	}
	if err := setTermios(in, ioctlWriteTermios, &raw); err != nil {
		return nil, fmt.Errorf("set raw mode: %w", err)
	}

	if !sameDescriptor(in, out) && IsTerminal(out) {
		if savedOut, err := getTermios(out); err == nil {
			rawOut := *savedOut
			makeRaw(&rawOut)
			if setTermios(out, ioctlWriteTermios, &rawOut) == nil {
				s.savedOut = savedOut
			}
		}
	}

	controlFD(in, func(fd int) error {
		flushInput(fd)
		return nil
	})

	return s, nil
}

// sameDescriptor reports whether both files wrap the same fd number, as when
// a single /dev/tty handle serves input and output.
func sameDescriptor(a, b *os.File) bool {
	fd := func(f *os.File) int {
		n := -1
		controlFD(f, func(raw int) error {
			n = raw
			return nil
		})
		return n
	}
	fa, fb := fd(a), fd(b)
	return fa != -1 && fa == fb
}

// Restore applies the snapshots taken at Open back to the stream(s), waiting
// for pending output to drain first. Safe to call exactly once per Session;
// the caller runs it on every exit path.
func (s *Session) Restore() error {
	var firstErr error
	if s.savedOut != nil {
		if err := setTermios(s.out, ioctlWriteDrainTermios, s.savedOut); err != nil {
			firstErr = fmt.Errorf("restore output attributes: %w", err)
		}
	}
	if err := setTermios(s.in, ioctlWriteDrainTermios, s.saved); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("restore input attributes: %w", err)
	}
	return firstErr
}

// Arm bounds subsequent reads: after d elapses a blocked ReadByte unblocks
// with os.ErrDeadlineExceeded. Returns an error when the underlying file
// does not support deadlines.
func (s *Session) Arm(d time.Duration) error {
	return s.in.SetReadDeadline(time.Now().Add(d))
}

// Disarm cancels a previously armed deadline.
func (s *Session) Disarm() error {
	return s.in.SetReadDeadline(time.Time{})
}

// ReadByte blocks until one byte is available, the armed deadline fires, or
// the stream fails.
func (s *Session) ReadByte() (byte, error) {
	var buf [1]byte
	for {
		n, err := s.in.Read(buf[:])
		if n > 0 {
			return buf[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// Write writes p to the output stream.
func (s *Session) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// ClearLine moves the cursor to the line start and clears to end of line.
// Used before any redraw and before the prompt area is abandoned, so
// variable-length prior content leaves no artifacts.
func (s *Session) ClearLine() {
	s.out.Write(clearSequence)
}

// Interrupt returns the resolved interrupt character.
func (s *Session) Interrupt() byte {
	return s.intr
}

// IsErase reports whether b is one of the resolved erase characters.
func (s *Session) IsErase(b byte) bool {
	return bytes.IndexByte(s.erase, b) >= 0
}

// Attributes returns the current terminal attributes of f. Tests use it to
// verify restoration. Queried through SyscallConn like everything else, so
// checking attributes never costs the descriptor its pollability.
func Attributes(f *os.File) (*unix.Termios, error) {
	return getTermios(f)
}

// makeRaw mirrors cfmakeraw: byte-at-a-time input, no echo, no signal
// generation, no output post-processing.
func makeRaw(t *unix.Termios) {
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
}
