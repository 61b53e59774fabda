package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
)

type apiError struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]apiError{"error": {Message: msg, Code: code}})
}

// statusFor traduce los errores del dominio. Los específicos van antes que
// ErrInvalid porque lo envuelven.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest, "empty_cart"
	case errors.Is(err, domain.ErrInactiveProduct):
		return http.StatusBadRequest, "inactive_product"
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusBadRequest, "insufficient_stock"
	case errors.Is(err, domain.ErrInvalid):
		return http.StatusBadRequest, "invalid"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	body := apiError{Message: err.Error(), Code: code}
	var ve *validationError
	if errors.As(err, &ve) {
		body.Code = "validation"
		body.Fields = ve.fields
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Str("request_id", requestIDFrom(r.Context())).Msg("request failed")
		body.Message = "error interno"
	}
	writeJSON(w, status, map[string]apiError{"error": body})
}
