package typeset

import "strings"

// ValidationError reports a request that was rejected before reaching
// the backend: missing markup or an unsupported format.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BackendError carries the typesetting errors reported by the backend
// for a structurally valid request.
type BackendError struct {
	Messages []string
}

func (e *BackendError) Error() string {
	if len(e.Messages) == 0 {
		return "typesetting failed"
	}
	return strings.Join(e.Messages, "; ")
}
