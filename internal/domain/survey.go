/**
 * @description
 * Domain models for the survey assembler: survey metadata, the ordered
 * survey-question join rows, and the DTOs for the survey endpoints.
 *
 * @notes
 * - Survey status is a closed state machine: draft -> active -> closed. The
 *   assembler rejects any transition outside that table.
 * - `order_number` values within one survey form a contiguous 1..N sequence;
 *   add/remove operations re-sequence inside the same database transaction.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Survey statuses. Only the transitions draft->active and active->closed are legal.
const (
	SurveyStatusDraft  = "draft"
	SurveyStatusActive = "active"
	SurveyStatusClosed = "closed"
)

// Survey combines an audience with an ordered question set. TokenCost is fixed at
// creation and debited from the owner's ledger when the survey activates.
type Survey struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AudienceID  uuid.UUID `json:"audience_id"`
	TokenCost   int64     `json:"token_cost"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// QuestionIDs is populated on reads, ordered by order_number.
	QuestionIDs []uuid.UUID `json:"question_ids,omitempty"`
}

// SurveyQuestion is one row of the ordered survey-question relation.
type SurveyQuestion struct {
	SurveyID    uuid.UUID `json:"survey_id"`
	QuestionID  uuid.UUID `json:"question_id"`
	OrderNumber int       `json:"order_number"`
}

// CreateSurveyRequest is the DTO for the survey creation endpoint. Question order
// in the slice becomes the survey's question order.
type CreateSurveyRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	AudienceID  uuid.UUID   `json:"audience_id"`
	QuestionIDs []uuid.UUID `json:"question_ids"`
	TokenCost   int64       `json:"token_cost"`
}

// AddSurveyQuestionRequest is the DTO for inserting a question into a draft survey.
type AddSurveyQuestionRequest struct {
	QuestionID  uuid.UUID `json:"question_id"`
	OrderNumber int       `json:"order_number"`
}

// ActivateSurveyResult reports the debit applied by a successful activation.
type ActivateSurveyResult struct {
	Survey        *Survey   `json:"survey"`
	TransactionID uuid.UUID `json:"transaction_id"`
	NewBalance    int64     `json:"new_balance"`
}
