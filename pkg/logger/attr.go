package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records err under the key "error". A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// NotificationID records a notification uuid.
func NotificationID(id string) slog.Attr {
	return slog.String("notification_id", id)
}

// RecipientKey records the list/channel suffix a notification is routed to
// ("global" or a recipient id).
func RecipientKey(key string) slog.Attr {
	return slog.String("recipient", key)
}

// Channel records a pub/sub channel name.
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

func CacheKey(key string) slog.Attr {
	return slog.String("cache_key", key)
}

func Page(n int) slog.Attr {
	return slog.Int("page", n)
}

// Attempt records a 1-based delivery attempt.
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func ClientIP(ip string) slog.Attr {
	return slog.String("client_ip", ip)
}
