package agentmanager

import "errors"

var (
	// ErrNoStream means the agent has no attached command stream — either it
	// never opened GetCommands or the stream dropped.
	ErrNoStream = errors.New("agentmanager: no command stream attached")

	// ErrStreamWrite means the write to the command stream failed. The stream
	// is likely dead; the RPC handler will detach it shortly.
	ErrStreamWrite = errors.New("agentmanager: command stream write failed")
)
