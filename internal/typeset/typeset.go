// Package typeset defines the conversion contract shared by every
// transport adapter: a validated equation request goes in, an SVG
// document comes out. All actual layout and rendering is delegated to
// a Backend; this package only validates and dispatches.
package typeset

import (
	"context"
	"fmt"
	"strings"
)

// Format identifies the markup language of an equation.
type Format string

const (
	FormatTeX       Format = "TeX"
	FormatMathML    Format = "MathML"
	FormatAsciiMath Format = "AsciiMath"
)

// DefaultFormat is assumed when a request carries no format.
const DefaultFormat = FormatTeX

// Formats lists the supported source formats in display order.
func Formats() []Format {
	return []Format{FormatTeX, FormatMathML, FormatAsciiMath}
}

// FormatNames returns the supported format names joined for error messages.
func FormatNames() string {
	names := make([]string, 0, 3)
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// ParseFormat resolves a user-supplied format string. Matching is
// case-insensitive; an empty string resolves to DefaultFormat.
func ParseFormat(s string) (Format, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultFormat, nil
	}
	for _, f := range Formats() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", &ValidationError{Message: fmt.Sprintf("invalid format %q, allowed formats: %s", s, FormatNames())}
}

// Request is a single equation conversion request. Display selects
// standalone block layout; false renders inline with surrounding text.
type Request struct {
	Markup  string
	Format  Format
	Display bool
}

// Validate checks the request against the shared validation rules.
// It must be called (directly or via Convert) before any backend call.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Markup) == "" {
		return &ValidationError{Message: "missing content: equation markup is required"}
	}
	switch r.Format {
	case FormatTeX, FormatMathML, FormatAsciiMath:
	default:
		return &ValidationError{Message: fmt.Sprintf("invalid format %q, allowed formats: %s", r.Format, FormatNames())}
	}
	return nil
}

// Backend is the external typesetting collaborator. Implementations
// receive a validated request and return SVG markup. Typesetting-level
// failures are reported as *BackendError.
type Backend interface {
	Typeset(ctx context.Context, req Request) (string, error)
}

// Convert validates req and delegates to the backend. Identical input
// is re-rendered on every call; the contract holds no cache and no
// state between calls.
func Convert(ctx context.Context, b Backend, req Request) (string, error) {
	if req.Format == "" {
		req.Format = DefaultFormat
	}
	if err := req.Validate(); err != nil {
		return "", err
	}
	return b.Typeset(ctx, req)
}
