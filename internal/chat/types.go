// Package chat talks to the remote chat endpoint: it posts a user message
// and hands back either the complete reply or the live response body.
package chat

import "io"

// Request is one user submission. It is created per turn and never mutated.
type Request struct {
	Message   string
	SessionID string
}

// SourceKind tells how the reply reached us.
type SourceKind int

const (
	Buffered SourceKind = iota // Complete JSON reply, already decoded.
	Streamed                   // Live byte stream, not yet decoded.
)

func (k SourceKind) String() string {
	switch k {
	case Buffered:
		return "buffered"
	case Streamed:
		return "streamed"
	default:
		return "unknown"
	}
}

// Source is the outcome of a successful dispatch.
// Exactly one of Text (Buffered) or Body (Streamed) is meaningful.
type Source struct {
	Kind SourceKind
	Text string
	// Body must be closed by whoever consumes it.
	Body io.ReadCloser
}

// wireRequest is the request body sent to POST /chat.
type wireRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// wireResponse is the buffered reply body.
type wireResponse struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message"`
}
