package handler

import (
	"context"
	"net/http"

	"github.com/auditoria/auditoria/pkg/sse"
)

// StreamFunc writes events until ctx is done or it returns.
type StreamFunc func(ctx context.Context, w *sse.Writer) error

type streamResponse struct {
	fn StreamFunc
}

// Stream opens a server-sent-events response and runs fn on it. Errors
// after the headers are written cannot change the status; they are still
// handed to the ErrorHandler for logging.
func Stream(fn StreamFunc) Response {
	return streamResponse{fn: fn}
}

func (s streamResponse) Render(w http.ResponseWriter, r *http.Request) error {
	sw, err := sse.NewWriter(w)
	if err != nil {
		return err
	}
	if err := s.fn(r.Context(), sw); err != nil {
		return &StreamError{Err: err}
	}
	return nil
}

// StreamError reports a failure after a stream was opened.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string { return "stream: " + e.Err.Error() }
func (e *StreamError) Unwrap() error { return e.Err }
