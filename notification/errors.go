package notification

import "errors"

var (
	// ErrNotFound is returned when an inbox record does not exist.
	ErrNotFound = errors.New("notification not found")
	// ErrQueueFull is logged by the dispatcher when its buffer overflows
	// and a message is dropped. It is never surfaced to publishers.
	ErrQueueFull = errors.New("notification queue full")
	// ErrClosed is returned when publishing through a closed dispatcher.
	ErrClosed = errors.New("notification dispatcher closed")
	// ErrPublishFailed wraps transport errors from the underlying stream.
	ErrPublishFailed = errors.New("failed to publish message")
)
