/**
 * @description
 * Domain models for collected survey responses and the aggregated results view.
 *
 * @notes
 * - One response row per (survey, question, member); the collector endpoint is the
 *   only writer, the aggregator the only reader.
 * - Multiple-choice answers encode the selected labels as a comma-separated list;
 *   the aggregator tallies each selection independently.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Response is one member's answer to one question of a survey.
type Response struct {
	ID          uuid.UUID `json:"id"`
	SurveyID    uuid.UUID `json:"survey_id"`
	QuestionID  uuid.UUID `json:"question_id"`
	MemberID    uuid.UUID `json:"member_id"`
	AnswerValue string    `json:"answer_value"`
	CreatedAt   time.Time `json:"created_at"`
}

// SubmitResponseRequest is the DTO for the response collector endpoint.
type SubmitResponseRequest struct {
	QuestionID  uuid.UUID `json:"question_id"`
	MemberID    uuid.UUID `json:"member_id"`
	AnswerValue string    `json:"answer_value"`
}

// QuestionTally aggregates all responses to one question. Choice questions report
// a count per declared option, including zero-count options; free-text questions
// report the raw answers instead.
type QuestionTally struct {
	QuestionID   uuid.UUID        `json:"question_id"`
	Title        string           `json:"title"`
	QuestionType string           `json:"question_type"`
	OrderNumber  int              `json:"order_number"`
	Counts       map[string]int64 `json:"counts,omitempty"`
	Answers      []string         `json:"answers,omitempty"`
	Total        int64            `json:"total"`
}

// SurveyResults is the per-survey aggregation returned by the results endpoint.
type SurveyResults struct {
	SurveyID       uuid.UUID       `json:"survey_id"`
	TotalResponses int64           `json:"total_responses"`
	Questions      []QuestionTally `json:"questions"`
}
