package binder

import "errors"

var (
	ErrFailedToParseQuery = errors.New("failed to parse query parameters")
	ErrFailedToParsePath  = errors.New("failed to parse path parameters")
	ErrInvalidTarget      = errors.New("binding target must be a non-nil pointer to struct")
	// ErrNotApplicable tells Wrap to skip a binder for the current request.
	ErrNotApplicable = errors.New("binder not applicable")
)
