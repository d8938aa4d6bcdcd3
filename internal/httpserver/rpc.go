package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/eqsvg/eqsvg/internal/rpc"
	"github.com/eqsvg/eqsvg/internal/store"
	"github.com/eqsvg/eqsvg/internal/typeset"
)

// paintParams are the params of the "paint" method.
type paintParams struct {
	Content string `json:"content"`
	Format  string `json:"format"`
	Inline  bool   `json:"inline"`
}

// paintResult wraps the converted SVG.
type paintResult struct {
	SVG string `json:"svg"`
}

// renderBitmapParams are the params of the "renderBitmap" method.
// Content nests the SVG document to "rasterize".
type renderBitmapParams struct {
	Content struct {
		SVG string `json:"svg"`
	} `json:"content"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	ID     string `json:"id"`
}

// getBitmapParams are the params of the "getBitmap" method.
type getBitmapParams struct {
	ID string `json:"id"`
}

// handleRPC serves POST /rpc. Every outcome, including a malformed
// body, is reported as a response envelope; dispatch failures land in
// the error member of the same id rather than an HTTP fault.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeEnvelope(w, http.StatusMethodNotAllowed, rpc.NewError(nil, rpc.CodeInvalidRequest, "method not allowed, use POST"))
		return
	}

	var req rpc.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusInternalServerError, rpc.NewError(nil, rpc.CodeParseError, "parse error: "+err.Error()))
		return
	}

	writeEnvelope(w, http.StatusOK, s.dispatch(r, req))
}

// dispatch routes one envelope to its method handler. A panic during
// dispatch becomes an internal error envelope with the caller's id.
func (s *Server) dispatch(r *http.Request, req rpc.Request) (resp rpc.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.WithField("panic", rec).Error("Recovered from RPC dispatch panic")
			resp = rpc.NewError(req.ID, rpc.CodeInternalError, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	switch req.Method {
	case "paint":
		return s.paint(r, req)
	case "renderBitmap":
		return s.renderBitmap(req)
	case "getBitmap":
		return s.getBitmap(req)
	default:
		return rpc.NewError(req.ID, rpc.CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func (s *Server) paint(r *http.Request, req rpc.Request) rpc.Response {
	var params paintParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return rpc.NewError(req.ID, rpc.CodeInvalidParams, "invalid params: "+err.Error())
	}

	format, err := typeset.ParseFormat(params.Format)
	if err != nil {
		return rpc.NewError(req.ID, rpc.CodeInvalidParams, err.Error())
	}

	conv := typeset.Request{Markup: params.Content, Format: format, Display: !params.Inline}
	svg, err := typeset.Convert(r.Context(), s.backend, conv)
	if err != nil {
		var verr *typeset.ValidationError
		if errors.As(err, &verr) {
			return rpc.NewError(req.ID, rpc.CodeInvalidParams, verr.Error())
		}
		return rpc.NewError(req.ID, rpc.CodeServerError, err.Error())
	}

	return rpc.NewResult(req.ID, paintResult{SVG: svg})
}

// renderBitmap is a placeholder: it stores the SVG and returns its
// bytes back as the "bitmap", base64 encoded, with declared
// dimensions. It does not rasterize anything.
func (s *Server) renderBitmap(req rpc.Request) rpc.Response {
	var params renderBitmapParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return rpc.NewError(req.ID, rpc.CodeInvalidParams, "invalid params: "+err.Error())
	}
	if params.Content.SVG == "" {
		return rpc.NewError(req.ID, rpc.CodeInvalidParams, "missing content: content.svg is required")
	}

	result := s.store.Render(params.Content.SVG, params.ID, params.Width, params.Height)
	return rpc.NewResult(req.ID, result)
}

func (s *Server) getBitmap(req rpc.Request) rpc.Response {
	var params getBitmapParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return rpc.NewError(req.ID, rpc.CodeInvalidParams, "invalid params: "+err.Error())
	}
	if params.ID == "" {
		return rpc.NewError(req.ID, rpc.CodeInvalidParams, "missing id")
	}

	bm, err := s.store.Lookup(params.ID)
	if err != nil {
		return rpc.NewError(req.ID, rpc.CodeServerError, err.Error())
	}

	return rpc.NewResult(req.ID, store.RenderResult{ID: params.ID, Cached: true, Bitmap: bm})
}

func writeEnvelope(w http.ResponseWriter, status int, resp rpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
