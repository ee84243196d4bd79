// Package redis connects the service to Redis through github.com/redis/go-redis/v9.
//
// Handle owns the single process-wide client: it dials lazily with Connect
// (ping with retries), hands the same client to every caller, and forgets it
// when a caller reports a transport failure so the next call reconnects.
//
// Store adapts a Handle to kvstore.Store. Each Subscribe call opens its own
// pub/sub connection, as Redis requires a connection in subscriber mode to
// stay dedicated to it.
//
//	h := redis.NewHandle(cfg)
//	defer h.Close()
//	store := redis.NewStore(h)
//
// Healthcheck plugs the handle into the readiness probe.
package redis
