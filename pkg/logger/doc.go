// Package logger builds the service's *slog.Logger.
//
// New takes functional options (level, format, output, static attributes,
// context extractors). NewFromConfig maps the APP_ENV, LOG_LEVEL and
// LOG_FORMAT variables onto those options: development gets text output at
// debug level, every other environment gets JSON at info level.
//
// Records pass through ContextHandler, which runs the registered
// ContextExtractor functions against the record's context. The request-id
// middleware contributes one such extractor, so every line logged while
// serving a request carries its request_id.
//
// attr.go holds constructors for the attribute keys used across the
// codebase (notification_id, recipient, channel, cache_key, ...).
//
//	log := logger.NewFromConfig(cfg,
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.ErrorContext(ctx, "publish failed",
//		logger.Channel(ch), logger.Error(err))
package logger
