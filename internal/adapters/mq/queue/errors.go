package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrClosed      = errors.New("queue closed")
	ErrUnreachable = errors.New("queue backend unreachable")
)
