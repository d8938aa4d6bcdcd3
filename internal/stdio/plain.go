package stdio

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eqsvg/eqsvg/internal/typeset"
)

// plainRequest is one line of the plain protocol.
type plainRequest struct {
	Content string `json:"content"`
	Inline  bool   `json:"inline"`
}

// RunPlain processes plain {content, inline} lines, answering each
// with the raw SVG as a single output line. This variant is fail-fast:
// the first malformed line, validation failure, or backend error ends
// the session with that error. End of stream returns nil.
func (s *Session) RunPlain(ctx context.Context) error {
	sc := s.scanner()

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var req plainRequest
		if err := json.Unmarshal(line, &req); err != nil {
			return fmt.Errorf("malformed request line: %w", err)
		}

		conv := typeset.Request{Markup: req.Content, Format: typeset.DefaultFormat, Display: !req.Inline}
		svg, err := typeset.Convert(ctx, s.Backend, conv)
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintln(s.Out, svg); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}

	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
