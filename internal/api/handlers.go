/**
 * @description
 * This file defines the handler container for the survey service's API
 * endpoints and the small helpers shared across handler files. Handlers parse
 * incoming requests, call the application services, and write HTTP responses.
 * They act as the bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, net/http: Standard Go libraries.
 * - internal/app, internal/domain: For service logic and models.
 */

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pollcraft/survey-service/internal/app"
)

// Handlers holds the application services that handlers will use.
type Handlers struct {
	auth      *app.AuthService
	ledger    *app.LedgerService
	audiences *app.AudienceService
	questions *app.QuestionService
	surveys   *app.SurveyService
	results   *app.ResultsService
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(
	auth *app.AuthService,
	ledger *app.LedgerService,
	audiences *app.AudienceService,
	questions *app.QuestionService,
	surveys *app.SurveyService,
	results *app.ResultsService,
) *Handlers {
	return &Handlers{
		auth:      auth,
		ledger:    ledger,
		audiences: audiences,
		questions: questions,
		surveys:   surveys,
		results:   results,
	}
}

// requireUserID pulls the authenticated user's UUID out of the context. A miss
// means the auth middleware did not run, which is a server wiring bug.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, kindInternal, "Could not get user ID from context")
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID parses a UUID path parameter, writing a validation error on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, string(app.KindValidation), "Invalid "+param+" in path")
		return uuid.Nil, false
	}
	return id, true
}
