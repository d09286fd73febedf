package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"

	"github.com/mind-engage/mindengage-cie/internal/portal"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError maps portal errors to status codes; anything unknown is a
// logged 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *portal.ValidationError
		nf   *portal.NotFoundError
		perr *portal.ParseError
	)
	switch {
	case errors.As(err, &verr):
		body := map[string]any{"error": verr.Error()}
		if len(verr.Fields) > 0 {
			flds := make(map[string]string, len(verr.Fields))
			for _, f := range verr.Fields {
				flds[f.Field] = f.Error
			}
			body["fields"] = flds
		}
		respondJSON(w, http.StatusBadRequest, body)
	case errors.As(err, &nf):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": nf.Error()})
	case errors.As(err, &perr):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": perr.Error()})
	default:
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg := http.StatusText(http.StatusInternalServerError)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// parseID reads a positive integer id; blank yields 0 so the service can
// report the missing field.
func parseID(raw, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, portal.NewValidationError(errors.Errorf("%s must be a positive integer", field),
			portal.FieldError{Field: field, Error: "must be a positive integer"})
	}
	return v, nil
}

// flexID accepts a JSON number or a numeric string.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*id = flexID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*id = flexID(s)
	return nil
}
