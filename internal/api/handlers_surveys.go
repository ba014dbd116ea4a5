/**
 * @description
 * Handlers for the survey lifecycle: assembling drafts, editing their question
 * order, activating (which debits the owner's token balance), closing, and
 * reading aggregated results. The collector endpoint for submitting panel
 * responses also lives here; it is guarded by an API key instead of a bearer
 * token because panel integrations are not account holders.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/pollcraft/survey-service/internal/app"
	"github.com/pollcraft/survey-service/internal/domain"
	"github.com/pollcraft/survey-service/internal/metrics"
)

// CreateSurveyHandler assembles a new draft survey.
func (h *Handlers) CreateSurveyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req domain.CreateSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=create_survey outcome=reject reason=invalid_json err=%v", err)
		writeError(w, http.StatusBadRequest, string(app.KindValidation), "Invalid request body")
		return
	}

	survey, err := h.surveys.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, "create_survey", err)
		return
	}

	log.Printf("level=info component=api endpoint=create_survey outcome=created survey_id=%s owner_id=%s token_cost=%d", survey.ID, userID, survey.TokenCost)
	writeJSON(w, http.StatusCreated, survey)
}

// ListSurveysHandler returns all surveys owned by the authenticated user.
func (h *Handlers) ListSurveysHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	surveys, err := h.surveys.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "list_surveys", err)
		return
	}
	if surveys == nil {
		surveys = []domain.Survey{}
	}

	writeJSON(w, http.StatusOK, surveys)
}

// GetSurveyHandler returns a single survey with its ordered question ids.
func (h *Handlers) GetSurveyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	surveyID, ok := pathUUID(w, r, "surveyID")
	if !ok {
		return
	}

	survey, err := h.surveys.Get(r.Context(), userID, surveyID)
	if err != nil {
		writeServiceError(w, "get_survey", err)
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// ActivateSurveyHandler opens a draft survey for responses, debiting the
// owner's token balance by the survey's cost in the same transaction.
func (h *Handlers) ActivateSurveyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	surveyID, ok := pathUUID(w, r, "surveyID")
	if !ok {
		return
	}

	result, err := h.surveys.Activate(r.Context(), userID, surveyID)
	if err != nil {
		metrics.ObserveSurveyActivation("failure")
		writeServiceError(w, "activate_survey", err)
		return
	}

	metrics.ObserveSurveyActivation("success")
	log.Printf("level=info component=api endpoint=activate_survey outcome=activated survey_id=%s owner_id=%s new_balance=%d", surveyID, userID, result.NewBalance)
	writeJSON(w, http.StatusOK, result)
}

// CloseSurveyHandler closes an active survey. Tokens spent on activation are
// not refunded.
func (h *Handlers) CloseSurveyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	surveyID, ok := pathUUID(w, r, "surveyID")
	if !ok {
		return
	}

	survey, err := h.surveys.Close(r.Context(), userID, surveyID)
	if err != nil {
		writeServiceError(w, "close_survey", err)
		return
	}

	log.Printf("level=info component=api endpoint=close_survey outcome=closed survey_id=%s owner_id=%s", surveyID, userID)
	writeJSON(w, http.StatusOK, survey)
}

// AddSurveyQuestionHandler inserts a question into a draft survey at the
// requested position, shifting later questions down.
func (h *Handlers) AddSurveyQuestionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	surveyID, ok := pathUUID(w, r, "surveyID")
	if !ok {
		return
	}

	var req domain.AddSurveyQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=add_survey_question outcome=reject reason=invalid_json err=%v", err)
		writeError(w, http.StatusBadRequest, string(app.KindValidation), "Invalid request body")
		return
	}

	survey, err := h.surveys.AddQuestion(r.Context(), userID, surveyID, req)
	if err != nil {
		writeServiceError(w, "add_survey_question", err)
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// RemoveSurveyQuestionHandler detaches a question from a draft survey,
// closing the gap in the remaining order numbers.
func (h *Handlers) RemoveSurveyQuestionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	surveyID, ok := pathUUID(w, r, "surveyID")
	if !ok {
		return
	}
	questionID, ok := pathUUID(w, r, "questionID")
	if !ok {
		return
	}

	survey, err := h.surveys.RemoveQuestion(r.Context(), userID, surveyID, questionID)
	if err != nil {
		writeServiceError(w, "remove_survey_question", err)
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// GetSurveyResultsHandler aggregates all collected responses per question.
func (h *Handlers) GetSurveyResultsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	surveyID, ok := pathUUID(w, r, "surveyID")
	if !ok {
		return
	}

	results, err := h.results.Aggregate(r.Context(), userID, surveyID)
	if err != nil {
		writeServiceError(w, "get_survey_results", err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// SubmitResponseHandler records one panel member's answer to one question of
// an active survey. This route is called by the response collector, not by
// account holders, so it sits behind the API key middleware.
func (h *Handlers) SubmitResponseHandler(w http.ResponseWriter, r *http.Request) {
	surveyID, ok := pathUUID(w, r, "surveyID")
	if !ok {
		return
	}

	var req domain.SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=submit_response outcome=reject reason=invalid_json err=%v", err)
		writeError(w, http.StatusBadRequest, string(app.KindValidation), "Invalid request body")
		return
	}

	response, err := h.results.SubmitResponse(r.Context(), surveyID, req)
	if err != nil {
		writeServiceError(w, "submit_response", err)
		return
	}

	writeJSON(w, http.StatusCreated, response)
}
