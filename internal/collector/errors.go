package collector

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies a failed fetch. Every kind is recoverable:
// the symbol is skipped and the run continues.
type FetchErrorKind string

const (
	KindTransport   FetchErrorKind = "transport"
	KindHTTPStatus  FetchErrorKind = "http_status"
	KindRateLimited FetchErrorKind = "rate_limited"
	KindAPI         FetchErrorKind = "api_error"
	KindDecode      FetchErrorKind = "decode"
)

// ErrAbandoned marks symbols never sent upstream because the run context
// ended while they waited for admission.
var ErrAbandoned = errors.New("fetch abandoned before admission")

// FetchError is returned for any per-symbol upstream failure.
type FetchError struct {
	Symbol     string
	Kind       FetchErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == KindHTTPStatus:
		return fmt.Sprintf("fetch %s: status %d: %s", e.Symbol, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.Symbol, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s: %s", e.Symbol, e.Kind, e.Message)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf returns the FetchErrorKind wrapped in err, or "" if there is none.
func KindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
