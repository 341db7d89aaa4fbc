// Package httpapi exposes the lookup engine as JSON over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/jamdict/internal/adapter/mapping"
	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/repository"
	"github.com/eslsoft/jamdict/internal/usecase"
)

// Handler serves the /api routes.
type Handler struct {
	uc     usecase.LookupUsecase
	logger logrus.FieldLogger
}

func NewHandler(uc usecase.LookupUsecase, logger logrus.FieldLogger) *Handler {
	return &Handler{uc: uc, logger: logger}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/lookup", h.LookupGet)
	mux.HandleFunc("POST /api/lookup", h.LookupPost)
	mux.HandleFunc("GET /api/entry/{idseq}", h.Entry)
	mux.HandleFunc("GET /api/name/{idseq}", h.Name)
	mux.HandleFunc("GET /api/char/{literal}", h.Char)
	mux.HandleFunc("GET /api/radical/{char}", h.Radical)
	mux.HandleFunc("GET /api/info", h.Info)
	mux.HandleFunc("GET /api/pos", h.POS)
	return mux
}

// LookupRequest is the POST /api/lookup body. POS and NameType may be a string or a list.
type LookupRequest struct {
	Query    string `json:"query"`
	Strict   bool   `json:"strict"`
	Chars    *bool  `json:"chars"`
	Names    *bool  `json:"names"`
	POS      any    `json:"pos"`
	NameType any    `json:"name_type"`
	Mode     string `json:"mode"`
	// Filter is a CEL conjunction over pos, name_type, mode and chars.
	Filter string `json:"filter"`
}

func (r LookupRequest) options() (usecase.LookupOptions, error) {
	var opts usecase.LookupOptions
	var err error
	opts.Strict = r.Strict
	opts.NoChars = r.Chars != nil && !*r.Chars
	opts.NoNames = r.Names != nil && !*r.Names
	if opts.POS, err = repository.TagsOf(r.POS); err != nil {
		return opts, err
	}
	if opts.NameTypes, err = repository.TagsOf(r.NameType); err != nil {
		return opts, err
	}
	if opts.Mode, err = repository.ParseMatchMode(r.Mode); err != nil {
		return opts, err
	}
	if err = opts.ApplyFilter(r.Filter); err != nil {
		return opts, err
	}
	return opts, nil
}

func (h *Handler) LookupGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := LookupRequest{Query: q.Get("q"), Mode: q.Get("mode"), Filter: q.Get("filter")}
	var err error
	if req.Strict, err = boolParam(q.Get("strict"), false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, p := range []struct {
		name string
		dst  **bool
	}{{"chars", &req.Chars}, {"names", &req.Names}} {
		v, err := boolParam(q.Get(p.name), true)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		*p.dst = &v
	}
	if pos := q["pos"]; len(pos) > 0 {
		req.POS = pos
	}
	if types := q["name_type"]; len(types) > 0 {
		req.NameType = types
	}
	h.lookup(w, r, req)
}

func (h *Handler) LookupPost(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	h.lookup(w, r, req)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request, req LookupRequest) {
	opts, err := req.options()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.uc.Lookup(r.Context(), req.Query, opts)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Entry(w http.ResponseWriter, r *http.Request) {
	idseq, err := idseqParam(r.PathValue("idseq"))
	if err != nil {
		h.fail(w, err)
		return
	}
	e, err := h.uc.GetEntry(r.Context(), idseq)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) Name(w http.ResponseWriter, r *http.Request) {
	idseq, err := idseqParam(r.PathValue("idseq"))
	if err != nil {
		h.fail(w, err)
		return
	}
	e, err := h.uc.GetName(r.Context(), idseq)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CharResponse is a character with its components.
type CharResponse struct {
	*entity.Character
	Components []string `json:"components"`
}

func (h *Handler) Char(w http.ResponseWriter, r *http.Request) {
	literal := r.PathValue("literal")
	c, err := h.uc.GetChar(r.Context(), literal)
	if err != nil {
		h.fail(w, err)
		return
	}
	comps, err := h.uc.ComponentsOf(literal)
	if err != nil {
		h.logger.WithError(err).Warn("component index unavailable")
	}
	writeJSON(w, http.StatusOK, CharResponse{Character: c, Components: comps})
}

// RadicalResponse lists what a character is made of and what is made of it.
type RadicalResponse struct {
	Char       string   `json:"char"`
	Components []string `json:"components"`
	Characters []string `json:"characters"`
}

func (h *Handler) Radical(w http.ResponseWriter, r *http.Request) {
	char := r.PathValue("char")
	comps, err := h.uc.ComponentsOf(char)
	if err != nil {
		h.fail(w, err)
		return
	}
	chars, err := h.uc.CharactersWith(char)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RadicalResponse{Char: char, Components: comps, Characters: chars})
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.uc.Info(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// POSResponse lists the filter values.
type POSResponse struct {
	POS       []string `json:"pos"`
	NameTypes []string `json:"name_types,omitempty"`
}

func (h *Handler) POS(w http.ResponseWriter, r *http.Request) {
	pos, err := h.uc.AllPOS(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := POSResponse{POS: pos}
	types, err := h.uc.AllNameTypes(r.Context())
	switch {
	case err == nil:
		resp.NameTypes = types
	case !errors.Is(err, entity.ErrBackendUnavailable):
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := mapping.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).Error("request failed")
	}
	writeError(w, status, err.Error())
}

func boolParam(v string, fallback bool) (bool, error) {
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", v)
	}
	return b, nil
}

// idseqParam accepts both 1002490 and id#1002490.
func idseqParam(v string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(v, "id#"), 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%q: %w", v, entity.ErrInvalidIdseq)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
