package vehicle

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vehiclepass/vehicle-command/pkg/status"
)

// Command enumerates the remote commands the telematics service accepts.
type Command int

const (
	CommandLock Command = iota
	CommandUnlock
	CommandRemoteStart
	CommandCancelRemoteStart
)

var commandNames = map[Command]string{
	CommandLock:              "lock",
	CommandUnlock:            "unLock",
	CommandRemoteStart:       "remoteStart",
	CommandCancelRemoteStart: "cancelRemoteStart",
}

// String returns the command's wire name.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// IsRemoteStart returns true for commands that count against the server's limit on remote start
// requests.
func (c Command) IsRemoteStart() bool {
	return c == CommandRemoteStart
}

// ParseCommand accepts a wire name, case-insensitively.
func ParseCommand(name string) (Command, error) {
	for c, wire := range commandNames {
		if strings.EqualFold(wire, name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unrecognized command '%s'", name)
}

// A Predicate reports whether a [status.Snapshot] reflects some desired state, such as locked
// doors. Predicates used as guards decide whether a command needs to be issued at all and, after
// issuing it, whether it took effect.
type Predicate func(*status.Snapshot) (bool, error)

// CommandRequest describes a single command invocation. Requests are built per call.
type CommandRequest struct {
	Command Command
	// Guard is true when the vehicle is already in the state the command would produce. It is
	// required if Verify is set.
	Guard       Predicate
	Force       bool
	Verify      bool
	VerifyDelay time.Duration

	SuccessMessage   string
	FailureMessage   string
	NotIssuedMessage string
	ForcedMessage    string
}

// Outcome describes how far a command progressed.
type Outcome int

const (
	// OutcomeSkipped means the guard was already satisfied and nothing was sent.
	OutcomeSkipped Outcome = iota
	// OutcomeIssued means the server acknowledged the command. The vehicle may not have acted on
	// it yet.
	OutcomeIssued
	// OutcomeVerified means the command was acknowledged and a refreshed status satisfied the
	// guard.
	OutcomeVerified
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeIssued:
		return "issued"
	case OutcomeVerified:
		return "verified"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// CommandResult is returned by a command that did not fail.
type CommandResult struct {
	Command Command
	Outcome Outcome
	// Response holds the server's acknowledgement. It is nil if the command was skipped.
	Response json.RawMessage
	Message  string
}

// Acknowledgement holds the fields of a command acknowledgement.
type Acknowledgement struct {
	CurrentStatus string `json:"currentStatus"`
	StatusReason  string `json:"statusReason"`
}

// Acknowledgement decodes Response.
func (r CommandResult) Acknowledgement() (*Acknowledgement, error) {
	if r.Response == nil {
		return nil, fmt.Errorf("%s command was not issued", r.Command)
	}
	var ack Acknowledgement
	if err := json.Unmarshal(r.Response, &ack); err != nil {
		return nil, fmt.Errorf("unable to parse command acknowledgement: %w", err)
	}
	return &ack, nil
}
