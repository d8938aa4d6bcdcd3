package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eqsvg/eqsvg/internal/typeset"
)

// convertRequest is the legacy endpoint's body.
type convertRequest struct {
	Equation string `json:"equation"`
	Format   string `json:"format"`
	Inline   bool   `json:"inline"`
}

// handleConvert serves POST /convert: equation markup in, raw SVG out.
// Validation failures are 400s, backend failures 500s, both with a
// JSON error body.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed, use POST")
		return
	}

	var body convertRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	format, err := typeset.ParseFormat(body.Format)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := typeset.Request{Markup: body.Equation, Format: format, Display: !body.Inline}
	svg, err := typeset.Convert(r.Context(), s.backend, req)
	if err != nil {
		var verr *typeset.ValidationError
		if errors.As(err, &verr) {
			writeJSONError(w, http.StatusBadRequest, verr.Error())
			return
		}
		s.logger.WithError(err).Error("Conversion failed")
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write([]byte(svg))
}
