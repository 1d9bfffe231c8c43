//go:build darwin

package term

import "golang.org/x/sys/unix"

const (
	ioctlReadTermios       = unix.TIOCGETA
	ioctlWriteTermios      = unix.TIOCSETA
	ioctlWriteDrainTermios = unix.TIOCSETAW
)

// fREAD selects the input queue for TIOCFLUSH.
const fREAD = 0x1

// flushInput discards pending, unread input on fd.
func flushInput(fd int) {
	unix.IoctlSetPointerInt(fd, unix.TIOCFLUSH, fREAD)
}
