package sse

import (
	"bytes"
	"errors"
	"net/http"
	"sync"
)

var (
	// ErrStreamingUnsupported is returned when the response cannot be flushed.
	ErrStreamingUnsupported = errors.New("sse: response writer does not support flushing")
	ErrInvalidEventName     = errors.New("sse: event name must not contain line breaks")
)

// Writer emits server-sent-event frames and flushes each one immediately.
// It is safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewWriter sends the event-stream response headers with status 200 and
// returns a Writer for the body.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	rc := http.NewResponseController(w)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		if errors.Is(err, http.ErrNotSupported) {
			return nil, ErrStreamingUnsupported
		}
		return nil, err
	}
	return &Writer{w: w, rc: rc}, nil
}

// Event writes "event: <name>\ndata: <data>\n\n". Multi-line data is split
// into one data field per line.
func (sw *Writer) Event(name string, data []byte) error {
	if bytes.ContainsAny([]byte(name), "\r\n") {
		return ErrInvalidEventName
	}

	var buf bytes.Buffer
	buf.WriteString("event: ")
	buf.WriteString(name)
	buf.WriteByte('\n')
	for line := range bytes.Lines(data) {
		buf.WriteString("data: ")
		buf.Write(bytes.TrimRight(line, "\r\n"))
		buf.WriteByte('\n')
	}
	if len(data) == 0 {
		buf.WriteString("data: \n")
	}
	buf.WriteByte('\n')

	return sw.write(buf.Bytes())
}

// Comment writes ": <text>\n\n". Clients ignore comments; they keep
// intermediaries from timing out idle streams.
func (sw *Writer) Comment(text string) error {
	return sw.write([]byte(": " + text + "\n\n"))
}

func (sw *Writer) write(frame []byte) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if _, err := sw.w.Write(frame); err != nil {
		return err
	}
	return sw.rc.Flush()
}
