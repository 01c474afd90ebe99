package server

import (
	"encoding/json"
	"net/http"

	"github.com/tjfontaine/mindspark/internal/core/domain"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as a JSON error and records it on the request log
// line. It must only be used before any body bytes were sent.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := domain.AsAPIError(err)
	AddError(r.Context(), err)

	WriteJSON(w, apiErr.HTTPStatusCode(), ErrorBody{
		Message: apiErr.Message,
		Type:    string(apiErr.Type),
		Param:   apiErr.Param,
	})
}
