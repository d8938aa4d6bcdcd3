// Package stdio runs the persistent line-oriented session adapters:
// one JSON request per input line, one response per line, until the
// peer closes the stream. Two protocols exist: a plain fail-fast
// variant answering with raw SVG lines, and a JSON-RPC variant that
// survives malformed lines.
package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/eqsvg/eqsvg/internal/rpc"
	"github.com/eqsvg/eqsvg/internal/typeset"
	"github.com/sirupsen/logrus"
)

// maxLineSize bounds a single request line. Equations are small;
// generous headroom for pasted MathML documents.
const maxLineSize = 1024 * 1024

// Session reads requests from In and writes responses to Out. Lines
// are processed strictly in order; a response is written before the
// next line is read.
type Session struct {
	Backend typeset.Backend
	In      io.Reader
	Out     io.Writer
	Logger  *logrus.Logger
}

// convertParams are the params of the JSON-RPC "convert" method.
type convertParams struct {
	Equation string `json:"equation"`
	Format   string `json:"format"`
	Inline   bool   `json:"inline"`
}

// convertResult wraps the converted SVG.
type convertResult struct {
	SVG string `json:"svg"`
}

func (s *Session) scanner() *bufio.Scanner {
	sc := bufio.NewScanner(s.In)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return sc
}

// RunJSONRPC processes JSON-RPC envelopes line by line. A malformed
// line yields a parse-error envelope with a null id and the session
// keeps reading; end of stream returns nil.
func (s *Session) RunJSONRPC(ctx context.Context) error {
	sc := s.scanner()
	enc := json.NewEncoder(s.Out)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var req rpc.Request
		var resp rpc.Response
		if err := json.Unmarshal(line, &req); err != nil {
			s.Logger.WithError(err).Warn("Malformed request line")
			resp = rpc.NewError(nil, rpc.CodeParseError, "parse error: "+err.Error())
		} else {
			resp = s.dispatch(ctx, req)
		}

		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}

	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// dispatch handles one envelope. Only "convert" exists on this
// transport.
func (s *Session) dispatch(ctx context.Context, req rpc.Request) rpc.Response {
	if req.Method != "convert" {
		return rpc.NewError(req.ID, rpc.CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}

	var params convertParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return rpc.NewError(req.ID, rpc.CodeInvalidParams, "invalid params: "+err.Error())
	}

	format, err := typeset.ParseFormat(params.Format)
	if err != nil {
		return rpc.NewError(req.ID, rpc.CodeInvalidParams, err.Error())
	}

	conv := typeset.Request{Markup: params.Equation, Format: format, Display: !params.Inline}
	svg, err := typeset.Convert(ctx, s.Backend, conv)
	if err != nil {
		var verr *typeset.ValidationError
		if errors.As(err, &verr) {
			return rpc.NewError(req.ID, rpc.CodeInvalidParams, verr.Error())
		}
		return rpc.NewError(req.ID, rpc.CodeServerError, err.Error())
	}

	return rpc.NewResult(req.ID, convertResult{SVG: svg})
}
