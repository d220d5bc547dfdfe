package transformer

import (
	"fmt"
	"strings"
)

// ValidationError describes why a symbol's payload was rejected. Date and
// Field are empty when the failure is not tied to a single point.
type ValidationError struct {
	Symbol string
	Date   string
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "validate %s", e.Symbol)
	if e.Date != "" {
		fmt.Fprintf(&b, " %s", e.Date)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " %q", e.Field)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Err }
