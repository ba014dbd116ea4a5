/**
 * @description
 * JSON response helpers shared by all handlers, including the mapping from
 * service error kinds to HTTP status codes. Every error response carries the
 * same envelope: {"error": {"kind": "...", "message": "..."}}.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/pollcraft/survey-service/internal/app"
)

// kindRateLimited is only produced by the HTTP layer, never by services.
const (
	kindUnauthorized = string(app.KindUnauthorized)
	kindRateLimited  = "rate_limited"
	kindInternal     = "internal"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Kind: kind, Message: message}})
}

// writeServiceError translates a service error into the HTTP status the kind
// calls for. Anything that is not a ServiceError is treated as an internal
// failure and logged without leaking details to the client.
func writeServiceError(w http.ResponseWriter, endpoint string, err error) {
	svcErr, ok := app.AsServiceError(err)
	if !ok {
		log.Printf("level=error component=api endpoint=%s msg=\"unhandled error\" err=%v", endpoint, err)
		writeError(w, http.StatusInternalServerError, kindInternal, "An internal error occurred")
		return
	}

	status := http.StatusInternalServerError
	switch svcErr.Kind {
	case app.KindValidation:
		status = http.StatusBadRequest
	case app.KindUnauthorized:
		status = http.StatusUnauthorized
	case app.KindInsufficientTokens:
		status = http.StatusPaymentRequired
	case app.KindNotFound:
		status = http.StatusNotFound
	case app.KindConflict:
		status = http.StatusConflict
	case app.KindIntegrity:
		log.Printf("level=error component=api endpoint=%s msg=\"integrity failure surfaced to client\" err=%v", endpoint, err)
		status = http.StatusInternalServerError
	}

	writeError(w, status, string(svcErr.Kind), svcErr.Message)
}
