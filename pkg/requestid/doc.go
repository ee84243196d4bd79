// Package requestid tags each HTTP request with a correlation id.
//
// Middleware keeps a client-supplied X-Request-ID when it is well formed and
// otherwise generates a UUID. LoggerExtractor plugs the id into
// logger.WithContextExtractors, and Transport forwards it to upstream
// services such as the task bulk endpoint.
package requestid
