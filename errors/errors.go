package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Broadcast conflicts, surfaced to the requesting user, never treated as faults.
	ErrBroadcastActive = fmt.Errorf("a broadcast is already running")
	ErrNoBroadcast     = fmt.Errorf("no broadcast is running")
	ErrNotInitiator    = fmt.Errorf("only the broadcast initiator can stop it")

	// Command validation.
	ErrMalformedBroadcast = fmt.Errorf("broadcast arguments are malformed")
	ErrCountOutOfRange    = fmt.Errorf("broadcast count must be between 1 and 20")

	// Session lifecycle.
	ErrLoggedOut        = fmt.Errorf("session logged out")
	ErrConnectionClosed = fmt.Errorf("connection closed")

	ErrEmptyReply = fmt.Errorf("inference returned an empty reply")
	ErrEmptyWords = fmt.Errorf("no words have been found")
)
