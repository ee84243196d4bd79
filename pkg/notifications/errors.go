package notifications

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("notifications: notification not found")
	ErrDispatcherStopped = errors.New("notifications: dispatcher stopped")
	ErrSubscribe         = errors.New("notifications: subscribe failed")
	ErrUnknownStorage    = errors.New("notifications: unknown storage strategy")
)

// ValidationError maps payload fields to the messages describing what is
// wrong with them.
type ValidationError url.Values

func (e ValidationError) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if msgs := e[f]; len(msgs) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", f, msgs[0]))
		}
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e ValidationError) Add(field, message string) {
	url.Values(e).Add(field, message)
}

func (e ValidationError) Has(field string) bool {
	return len(e[field]) > 0
}
