package protocol

import (
	"errors"
	"fmt"
)

// Error exposes methods useful for categorizing errors.
type Error interface {
	error

	// MayHaveSucceeded returns true if the Error was triggered by a command that might have been
	// executed. For example, if a command was accepted by the server but the vehicle state did not
	// change before the client checked, the command may still take effect later.
	MayHaveSucceeded() bool

	// Temporary returns true if the Error might be the result of a transient condition. For
	// example, vehicles that are waking from sleep often take longer than usual to act on a
	// command.
	Temporary() bool
}

var (
	// ErrRemoteStartLimit indicates the client has already issued the maximum number of remote
	// start requests the server accepts before the vehicle is driven.
	ErrRemoteStartLimit = errors.New("maximum of 2 remote start requests already issued")
	// ErrNotRunning indicates a command requires the engine to be running.
	ErrNotRunning = errors.New("vehicle is not running")
	// ErrMissingCredentials indicates a username or password was not provided.
	ErrMissingCredentials = errors.New("username (email address) and password are required")
	// ErrNotLoggedIn indicates a request was attempted before obtaining access tokens.
	ErrNotLoggedIn = errors.New("client has not logged in")
	ErrBadResponse = errors.New("invalid response")
)

type CommandError struct {
	Err               error
	PossibleSuccess   bool
	PossibleTemporary bool
}

func NewError(message string, mayHaveSucceeded bool, temporary bool) error {
	return &CommandError{Err: errors.New(message), PossibleSuccess: mayHaveSucceeded, PossibleTemporary: temporary}
}

func (e *CommandError) Error() string {
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func (e *CommandError) MayHaveSucceeded() bool {
	return e.PossibleSuccess
}

func (e *CommandError) Temporary() bool {
	return e.PossibleTemporary
}

// ConfigurationError indicates the client misused the library, for example by requesting
// verification without supplying a predicate to verify against. No request is sent to the server.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

func (e *ConfigurationError) MayHaveSucceeded() bool {
	return false
}

func (e *ConfigurationError) Temporary() bool {
	return false
}

// StatusError indicates a required field in the vehicle status was missing, malformed, or had an
// unexpected type. Missing fields usually mean the server changed its response format.
type StatusError struct {
	Metric string
	Err    error
}

func NewStatusError(metric, format string, a ...interface{}) error {
	return &StatusError{Metric: metric, Err: fmt.Errorf(format, a...)}
}

func (e *StatusError) Error() string {
	if e.Metric == "" {
		return "vehicle status: " + e.Err.Error()
	}
	return fmt.Sprintf("vehicle status %s: %s", e.Metric, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// CommandVerificationError indicates the server accepted a command but the expected change in
// vehicle state was not observed after the verification delay. The command may still take effect.
type CommandVerificationError struct {
	Command string
	Message string
}

func (e *CommandVerificationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("could not verify %s command", e.Command)
	}
	return fmt.Sprintf("could not verify %s command: %s", e.Command, e.Message)
}

func (e *CommandVerificationError) MayHaveSucceeded() bool {
	return true
}

func (e *CommandVerificationError) Temporary() bool {
	return true
}

// MayHaveSucceeded returns true if err indicates the command may have been executed but the client
// did not receive a confirmation from the vehicle.
func MayHaveSucceeded(err error) bool {
	var commErr Error
	if errors.As(err, &commErr) && commErr.MayHaveSucceeded() {
		return true
	}
	return false
}

// Temporary returns true if err indicates the command failed due to possibly transient conditions
// that do not require user action to resolve.
func Temporary(err error) bool {
	var commErr Error
	if errors.As(err, &commErr) && commErr.Temporary() {
		return true
	}
	return false
}

// IsStatusError returns true if err is, or wraps, a *StatusError.
func IsStatusError(err error) bool {
	if err == nil {
		return false
	}
	var sErr *StatusError
	return errors.As(err, &sErr)
}
