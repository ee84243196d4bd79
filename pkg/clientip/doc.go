// Package clientip resolves the originating client address of a request
// behind reverse proxies.
//
// Only headers named explicitly are trusted; a client talking to the server
// directly could otherwise forge X-Forwarded-For. The resolved address is
// stored in the request context by Resolver.Middleware, used as the rate
// limit key for inbound webhooks and attached to log records through
// LoggerExtractor.
//
//	res := clientip.NewResolver(clientip.DefaultHeaders...)
//	r.Use(res.Middleware)
package clientip
