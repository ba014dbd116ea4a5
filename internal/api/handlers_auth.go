/**
 * @description
 * Handlers for account signup and login. Both endpoints are public and return
 * a signed bearer token on success.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/pollcraft/survey-service/internal/app"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupHandler registers a new account and issues its first access token.
func (h *Handlers) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=signup outcome=reject reason=invalid_json err=%v", err)
		writeError(w, http.StatusBadRequest, string(app.KindValidation), "Invalid request body")
		return
	}

	result, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "signup", err)
		return
	}

	log.Printf("level=info component=api endpoint=signup outcome=created user_id=%s", result.UserID)
	writeJSON(w, http.StatusCreated, result)
}

// LoginHandler authenticates an existing account and issues an access token.
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=login outcome=reject reason=invalid_json err=%v", err)
		writeError(w, http.StatusBadRequest, string(app.KindValidation), "Invalid request body")
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
