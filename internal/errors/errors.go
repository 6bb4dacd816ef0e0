// Package errors provides structured CLI error types for nanobridge.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes
// to provide consistent, actionable error output across all commands.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes for CLI errors.
const (
	ExitSuccess = 0  // Successful execution
	ExitGeneral = 1  // General error
	ExitAuth    = 2  // Authentication error
	ExitNetwork = 3  // Network/API error
	ExitConfig  = 4  // Configuration error
	ExitSession = 5  // Session not found or not reachable
	ExitUsage   = 64 // Command line usage error (BSD convention)
)

// CLIError represents a user-facing CLI error with actionable guidance.
type CLIError struct {
	// Message is the primary error message shown to the user.
	Message string

	// Hint provides actionable guidance on how to fix the error.
	Hint string

	// Cause is the underlying error, if any.
	Cause error

	// Code is the exit code for the CLI.
	Code int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a new CLIError with the given message and exit code.
func New(code int, message string) *CLIError {
	return &CLIError{
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an existing error with a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// WithHint adds a hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is a convenience function for errors.As with CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}

// --- Common error constructors ---

// SessionNotFound returns an error for a missing or unreachable session.
// This is fatal by design: no keystrokes have been sent, and the session
// lifecycle belongs to whoever started it, not to nanobridge.
func SessionNotFound(name string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Session not found: %s", name),
		Hint:    fmt.Sprintf("Start it with 'tmux new-session -d -s %s' and launch the agent inside", name),
		Code:    ExitSession,
	}
}

// TmuxNotFound returns an error when the tmux binary is not available.
func TmuxNotFound() *CLIError {
	return &CLIError{
		Message: "tmux not found",
		Hint:    "Install tmux (apt install tmux / brew install tmux) and retry",
		Code:    ExitConfig,
	}
}

// EmptyPrompt returns an error for a blank prompt argument.
func EmptyPrompt() *CLIError {
	return &CLIError{
		Message: "Prompt must not be empty",
		Hint:    "Pass the prompt as an argument: nanobridge ask \"your question\"",
		Code:    ExitUsage,
	}
}

// PeerUnreachable returns an error when the monitoring peer cannot be reached.
func PeerUnreachable(url string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Peer unreachable: %s", url),
		Hint:    "Check that the peer is running and peer.url is correct, or run 'nanobridge doctor'",
		Cause:   cause,
		Code:    ExitNetwork,
	}
}

// PeerRejected returns an error for a non-success peer response.
func PeerRejected(status int) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Peer rejected the request (HTTP %d)", status),
		Hint:    "Check that NANOBRIDGE_PEER_TOKEN matches the token the peer expects",
		Code:    ExitNetwork,
	}
}

// NotAuthenticated returns an error indicating a missing peer token.
func NotAuthenticated() *CLIError {
	return &CLIError{
		Message: "No peer token configured",
		Hint:    "Set NANOBRIDGE_PEER_TOKEN or run 'nanobridge init'",
		Code:    ExitAuth,
	}
}

// CannotPrompt returns an error when interactive prompts are unavailable.
func CannotPrompt(envVar string) *CLIError {
	return &CLIError{
		Message: "Cannot prompt in non-interactive mode",
		Hint:    fmt.Sprintf("Set %s environment variable instead", envVar),
		Code:    ExitUsage,
	}
}

// ConfigFailed returns an error for configuration save failures.
func ConfigFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s", operation),
		Hint:    "Check file permissions for your nanobridge config directory or run 'nanobridge doctor'",
		Cause:   cause,
		Code:    ExitConfig,
	}
}

// ProfileNotFound returns an error for an unknown session profile.
func ProfileNotFound(name string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Session profile not found: %s", name),
		Hint:    "Check sessions.yaml in your nanobridge config directory",
		Code:    ExitConfig,
	}
}

// DigestFailed returns an error when digest collection fails.
func DigestFailed(section string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to collect %s for the digest", section),
		Cause:   cause,
		Code:    ExitGeneral,
	}
}

// HistoryFailed returns an error for conversation log access failures.
func HistoryFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s conversation log", operation),
		Hint:    "Check file permissions for your nanobridge state directory",
		Cause:   cause,
		Code:    ExitGeneral,
	}
}

// ServeFailed returns an error when the HTTP bridge cannot start.
func ServeFailed(addr string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to serve on %s", addr),
		Hint:    "Check that the address is free, or pass a different one with --addr",
		Cause:   cause,
		Code:    ExitNetwork,
	}
}
