package domain

import (
	"errors"
	"fmt"
)

type FetchErrorKind string

const (
	FetchErrorStatus    FetchErrorKind = "status"
	FetchErrorTransport FetchErrorKind = "transport"
	FetchErrorDecode    FetchErrorKind = "decode"
)

// FetchError is the single error kind for a failed product list request.
// Every kind renders as "API error: ..." so callers can show it as is.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	StatusText string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchErrorStatus {
		return fmt.Sprintf("API error: %d %s", e.StatusCode, e.StatusText)
	}
	if e.Err == nil {
		return "API error"
	}
	return fmt.Sprintf("API error: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func NewStatusError(url string, code int, text string) error {
	return &FetchError{Kind: FetchErrorStatus, URL: url, StatusCode: code, StatusText: text}
}

func NewTransportError(url string, err error) error {
	return &FetchError{Kind: FetchErrorTransport, URL: url, Err: err}
}

func NewDecodeError(url string, err error) error {
	return &FetchError{Kind: FetchErrorDecode, URL: url, Err: err}
}

func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	ok := errors.As(err, &fe)
	return fe, ok
}
