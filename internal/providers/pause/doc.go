// Package pause provides the interactive pause provider for automation runs.
//
// The provider suspends a scripted run until the operator presses enter,
// optionally bounded by a timeout, reading raw keystrokes from the
// controlling terminal. A configured timeout answer is substituted for the
// captured input when the deadline fires, and the driver's interrupt
// character opens a continue-or-abort dialog at any point.
//
// Lifecycle of one invocation:
//   - option resolution (pure; malformed options fail before any terminal
//     mutation)
//   - terminal mode transition (raw mode with optional echo, via term.Session)
//   - key-by-key read loop with line editing and interrupt handling
//   - unconditional terminal restoration and result assembly
//
// Exit paths: enter pressed, timeout fired, interrupt-continue,
// interrupt-abort, non-interactive input. All of them restore the terminal
// exactly as found.
//
// Tools:
//   - pause.run: suspend the run and capture operator input
package pause
