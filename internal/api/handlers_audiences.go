/**
 * @description
 * Handlers for the audience registry: defining audiences with demographic
 * constraints and resolving them against the panel member pool.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/pollcraft/survey-service/internal/app"
	"github.com/pollcraft/survey-service/internal/domain"
)

// CreateAudienceHandler defines a new audience for the authenticated user.
func (h *Handlers) CreateAudienceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req domain.CreateAudienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=create_audience outcome=reject reason=invalid_json err=%v", err)
		writeError(w, http.StatusBadRequest, string(app.KindValidation), "Invalid request body")
		return
	}

	audience, err := h.audiences.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, "create_audience", err)
		return
	}

	log.Printf("level=info component=api endpoint=create_audience outcome=created audience_id=%s owner_id=%s declared_size=%d", audience.ID, userID, audience.DeclaredSize)
	writeJSON(w, http.StatusCreated, audience)
}

// ListAudiencesHandler returns all audiences owned by the authenticated user.
func (h *Handlers) ListAudiencesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	audiences, err := h.audiences.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "list_audiences", err)
		return
	}
	if audiences == nil {
		audiences = []domain.Audience{}
	}

	writeJSON(w, http.StatusOK, audiences)
}

// ListAudienceMembersHandler resolves the audience against the current panel
// pool and returns the matched members. Resolution is re-run on every call so
// the membership always reflects the live panel.
func (h *Handlers) ListAudienceMembersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	audienceID, ok := pathUUID(w, r, "audienceID")
	if !ok {
		return
	}

	members, err := h.audiences.Resolve(r.Context(), userID, audienceID)
	if err != nil {
		writeServiceError(w, "list_audience_members", err)
		return
	}
	if members == nil {
		members = []domain.AudienceMember{}
	}

	writeJSON(w, http.StatusOK, members)
}
