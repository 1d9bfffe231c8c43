// Package types defines the shared contract between automation providers
// and the engine that hosts them: service and tool metadata, execution
// context, and the structured result record handed back to the caller.
package types
