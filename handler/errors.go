package handler

import (
	"errors"
	"net/http"
)

var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError carries a status code and a short message key.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string { return e.Key }

var (
	ErrUnauthorized = HTTPError{Code: http.StatusUnauthorized, Key: "Unauthorized"}
	ErrForbidden    = HTTPError{Code: http.StatusForbidden, Key: "Unauthorized"}
	ErrInternal     = HTTPError{Code: http.StatusInternalServerError, Key: "Internal server error"}
)
