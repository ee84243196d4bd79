package redis

import (
	"context"
	"errors"
)

// Healthcheck returns a readiness probe that pings Redis through the handle.
// It connects on demand, so a probe run after an outage also re-establishes
// the connection.
func Healthcheck(h *Handle) func(context.Context) error {
	return func(ctx context.Context) error {
		client, err := h.Client(ctx)
		if err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		if err := client.Ping(ctx).Err(); err != nil {
			h.Invalidate(client)
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
