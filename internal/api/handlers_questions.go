/**
 * @description
 * Handlers for the question catalog: creating reusable questions and listing
 * the authenticated user's catalog.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/pollcraft/survey-service/internal/app"
	"github.com/pollcraft/survey-service/internal/domain"
)

// CreateQuestionHandler adds a question to the user's catalog.
func (h *Handlers) CreateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req domain.CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=create_question outcome=reject reason=invalid_json err=%v", err)
		writeError(w, http.StatusBadRequest, string(app.KindValidation), "Invalid request body")
		return
	}

	question, err := h.questions.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, "create_question", err)
		return
	}

	log.Printf("level=info component=api endpoint=create_question outcome=created question_id=%s owner_id=%s type=%s", question.ID, userID, question.Type)
	writeJSON(w, http.StatusCreated, question)
}

// ListQuestionsHandler returns all questions owned by the authenticated user.
func (h *Handlers) ListQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	questions, err := h.questions.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "list_questions", err)
		return
	}
	if questions == nil {
		questions = []domain.Question{}
	}

	writeJSON(w, http.StatusOK, questions)
}
