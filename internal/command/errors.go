package command

import "errors"

var (
	// ErrProtocolViolation means the byte stream can no longer be trusted.
	// The session cannot recover from it.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrMalformedCommand covers wrong argument counts and values outside a
	// command's range. The affected update is skipped.
	ErrMalformedCommand = errors.New("malformed command")
)
