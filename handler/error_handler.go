package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/auditoria/auditoria/pkg/binder"
	"github.com/auditoria/auditoria/pkg/logger"
)

// ErrorInfo is the classified form of an error.
type ErrorInfo struct {
	StatusCode int
	Message    string
	Details    map[string][]string
}

// Classifier maps domain errors to ErrorInfo. It reports false for errors
// it does not recognize.
type Classifier func(err error) (ErrorInfo, bool)

// BodyFunc builds the JSON body for a classified error.
type BodyFunc func(info ErrorInfo) any

// ErrorBody renders {"error": message} plus "details" when present.
func ErrorBody(info ErrorInfo) any {
	body := map[string]any{"error": info.Message}
	if len(info.Details) > 0 {
		body["details"] = info.Details
	}
	return body
}

// MessageBody renders {"message": message}.
func MessageBody(info ErrorInfo) any {
	return map[string]string{"message": info.Message}
}

type errorHandlerConfig struct {
	classifiers []Classifier
	body        BodyFunc
}

type ErrorHandlerOption func(*errorHandlerConfig)

// WithClassifier adds a classifier consulted before the built-in rules.
func WithClassifier(c Classifier) ErrorHandlerOption {
	return func(cfg *errorHandlerConfig) {
		if c != nil {
			cfg.classifiers = append(cfg.classifiers, c)
		}
	}
}

func WithBody(fn BodyFunc) ErrorHandlerOption {
	return func(cfg *errorHandlerConfig) {
		if fn != nil {
			cfg.body = fn
		}
	}
}

// Classify applies classifiers then the built-in rules: HTTPError and
// binder failures keep their status, anything else is a 500 with a
// generic message.
func Classify(err error, classifiers ...Classifier) ErrorInfo {
	for _, c := range classifiers {
		if info, ok := c(err); ok {
			return info
		}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return ErrorInfo{StatusCode: httpErr.Code, Message: httpErr.Key}
	}
	if errors.Is(err, binder.ErrFailedToParseQuery) || errors.Is(err, binder.ErrFailedToParsePath) {
		return ErrorInfo{StatusCode: http.StatusBadRequest, Message: err.Error()}
	}
	return ErrorInfo{StatusCode: http.StatusInternalServerError, Message: ErrInternal.Key}
}

// NewErrorHandler logs errors and renders them as JSON. Stream failures are
// only logged since the response is already committed.
func NewErrorHandler(log *slog.Logger, opts ...ErrorHandlerOption) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("error_handler"))

	cfg := errorHandlerConfig{body: ErrorBody}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		attrs := []slog.Attr{
			logger.Error(err),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		}

		var streamErr *StreamError
		if errors.As(err, &streamErr) {
			level := slog.LevelWarn
			if errors.Is(err, context.Canceled) {
				level = slog.LevelDebug
			}
			log.LogAttrs(ctx, level, "stream ended with error", attrs...)
			return
		}

		info := Classify(err, cfg.classifiers...)
		level := slog.LevelError
		if info.StatusCode < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(ctx, level, "request error", append(attrs, slog.Int("status_code", info.StatusCode))...)

		if renderErr := JSON(cfg.body(info), WithJSONStatus(info.StatusCode)).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.LogAttrs(ctx, slog.LevelError, "failed to render error", logger.Error(renderErr))
		}
	}
}
