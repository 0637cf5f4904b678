package chat

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyMessage is returned before any network I/O for a blank message.
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrEmptyResponse means a success status with nothing to show.
	ErrEmptyResponse = errors.New("chat endpoint returned an empty response")
)

// TransportError is a non-success HTTP status from the chat endpoint.
type TransportError struct {
	StatusCode int
	// Body holds the start of the response body, if any.
	Body string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chat endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("chat endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// DecodeError is a reply that cannot be decoded: malformed UTF-8 in a
// stream, even after cross-chunk continuation, or a malformed JSON body.
type DecodeError struct {
	// Offset is the byte offset into the body where decoding failed, or -1.
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("failed to decode response: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode response at byte %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StreamFault is a byte source that ended abnormally, or an endpoint that
// could not be reached at all.
type StreamFault struct {
	Err error
}

func (e *StreamFault) Error() string {
	return fmt.Sprintf("response stream failed: %v", e.Err)
}

func (e *StreamFault) Unwrap() error { return e.Err }

// Kind names the error class for display: "transport", "empty", "decode",
// "stream", "canceled", "timeout" or "unknown".
func Kind(err error) string {
	var (
		transport *TransportError
		decode    *DecodeError
		fault     *StreamFault
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &transport):
		return "transport"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	case errors.As(err, &decode):
		return "decode"
	case errors.As(err, &fault):
		return "stream"
	default:
		return "unknown"
	}
}
