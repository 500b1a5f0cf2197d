package model

import "errors"

// ErrorKind classifies provider failures so callers can react differently
// to network, auth and upstream problems.
type ErrorKind string

const (
	KindNetwork   ErrorKind = "network"
	KindAuth      ErrorKind = "auth"
	KindRateLimit ErrorKind = "rate_limit"
	KindUpstream  ErrorKind = "upstream"
	KindParse     ErrorKind = "parse"
	KindConfig    ErrorKind = "config"
)

type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	Message    string
	StatusCode int
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Provider == "" {
		return msg
	}
	return e.Provider + ": " + msg
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// KindOf reports the ErrorKind carried by err, or "" when err is not a
// ProviderError.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// KindForStatus maps a non-2xx HTTP status code to an ErrorKind.
func KindForStatus(statusCode int) ErrorKind {
	switch {
	case statusCode == 401 || statusCode == 403:
		return KindAuth
	case statusCode == 429:
		return KindRateLimit
	default:
		return KindUpstream
	}
}
