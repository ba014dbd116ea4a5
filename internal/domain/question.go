/**
 * @description
 * Domain models for the question catalog. A question's options are a tagged
 * shape keyed by its type: choice questions carry an ordered list of distinct
 * labels, free-text questions carry none.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Question types supported by the catalog. The set is closed; validation in the
// question service is exhaustive over it.
const (
	QuestionTypeSingleChoice   = "single_choice"
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeFreeText       = "free_text"
)

// Question is a reusable question definition owned by a user.
type Question struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"question_type"`
	Options     []string  `json:"options,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateQuestionRequest is the DTO for the question creation endpoint.
type CreateQuestionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"question_type"`
	Options     []string `json:"options,omitempty"`
}
