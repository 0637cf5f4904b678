package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/rawbil/chatme/internal/config"
)

const (
	chatPath = "/chat"
	// maxErrorBody caps how much of a failed response is kept for the error message.
	maxErrorBody = 512
	// maxBufferedBody caps a buffered JSON reply.
	maxBufferedBody = 4 << 20
)

// Doer is the part of *http.Client the dispatcher needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher posts chat requests to the configured endpoint.
type Dispatcher struct {
	url        string
	buffered   bool
	httpClient Doer
	logger     *zap.Logger
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c Doer) Option {
	return func(d *Dispatcher) { d.httpClient = c }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a dispatcher for cfg.Endpoint. In buffered mode
// every success body is decoded as a JSON reply.
func NewDispatcher(cfg *config.Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		url:        strings.TrimRight(cfg.Endpoint, "/") + chatPath,
		buffered:   cfg.Mode == config.ModeBuffered,
		httpClient: &http.Client{Timeout: cfg.Timeout.Std()},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// URL returns the full chat URL requests are posted to.
func (d *Dispatcher) URL() string {
	return d.url
}

// Dispatch sends req and returns the reply source. A Streamed source's Body
// belongs to the caller. On error no body is left open.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Source, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	body, err := json.Marshal(wireRequest{Message: req.Message, SessionID: req.SessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain, text/event-stream, application/json")

	d.logger.Debug("dispatching chat request",
		zap.String("endpoint", d.url),
		zap.String("session", req.SessionID),
		zap.Int("message_bytes", len(req.Message)))

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &StreamFault{Err: fmt.Errorf("could not reach chat endpoint at %s (is the backend running?): %w", d.url, err)}
	}

	d.logger.Debug("chat endpoint responded",
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", resp.Header.Get("Content-Type")),
		zap.Int64("content_length", resp.ContentLength))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if resp.Body == nil || resp.Body == http.NoBody || resp.ContentLength == 0 {
		if resp.Body != nil {
			resp.Body.Close()
		}
		return nil, ErrEmptyResponse
	}

	if d.buffered || isJSON(resp.Header.Get("Content-Type")) {
		defer resp.Body.Close()
		text, err := decodeBuffered(resp.Body)
		if err != nil {
			return nil, err
		}
		d.logger.Debug("buffered reply decoded", zap.Int("bytes", len(text)))
		return &Source{Kind: Buffered, Text: text}, nil
	}

	return &Source{Kind: Streamed, Body: resp.Body}, nil
}

func decodeBuffered(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBufferedBody))
	if err != nil {
		return "", &StreamFault{Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrEmptyResponse
	}
	var reply wireResponse
	if err := json.Unmarshal(data, &reply); err != nil {
		var offset int64 = -1
		if se, ok := err.(*json.SyntaxError); ok {
			offset = se.Offset
		}
		return "", &DecodeError{Offset: offset, Err: err}
	}
	if reply.Message == "" {
		return "", ErrEmptyResponse
	}
	return reply.Message, nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
