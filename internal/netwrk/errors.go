package netwrk

import "errors"

// TerminatedMessage is what the player sees when the stream breaks mid game.
const TerminatedMessage = "Connection was terminated."

var (
	ErrConnectFailure   = errors.New("connect failure")
	ErrTransportFailure = errors.New("transport failure")
	ErrPeerClosed       = errors.New("peer closed the connection")
)
