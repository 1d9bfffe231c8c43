// Package term manages raw-mode access to a controlling terminal.
//
// A Session snapshots the terminal attributes of the input stream, switches
// it (and the output stream, when that is also a terminal) to raw mode so
// keystrokes are delivered byte-by-byte, and restores the snapshot with
// drain-then-apply semantics on release. The driver's interrupt and erase
// characters are resolved from the snapshot with fixed fallbacks.
//
// Timeouts are delivered through the input file's read deadline rather than
// process-wide alarm signals: an armed deadline unblocks a pending read with
// os.ErrDeadlineExceeded, which callers treat as a distinct control-flow
// path.
//
// A Session is owned by exactly one pause invocation and never outlives it.
package term
