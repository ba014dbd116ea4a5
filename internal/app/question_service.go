/**
 * @description
 * The question catalog. Question options are validated exhaustively against the
 * question type: choice questions require a non-empty ordered list of distinct
 * labels, free-text questions must not carry options.
 */

package app

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pollcraft/survey-service/internal/domain"
	"github.com/pollcraft/survey-service/internal/store"
)

// QuestionService provides the core business logic for the question catalog.
type QuestionService struct {
	repo store.Repository
}

// NewQuestionService creates a new question catalog instance.
func NewQuestionService(repo store.Repository) *QuestionService {
	return &QuestionService{repo: repo}
}

// Create validates and persists a reusable question definition.
func (s *QuestionService) Create(ctx context.Context, ownerID uuid.UUID, req domain.CreateQuestionRequest) (*domain.Question, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, NewValidationError("question title is required")
	}
	if err := validateQuestionOptions(req.Type, req.Options); err != nil {
		return nil, err
	}

	question := &domain.Question{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Type:        req.Type,
		Options:     req.Options,
	}
	if question.Options == nil {
		question.Options = []string{}
	}
	if err := s.repo.CreateQuestion(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// List returns the questions owned by the user.
func (s *QuestionService) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Question, error) {
	return s.repo.ListQuestionsByOwner(ctx, ownerID)
}

// validateQuestionOptions is exhaustive over the supported question types.
func validateQuestionOptions(questionType string, options []string) error {
	switch questionType {
	case domain.QuestionTypeSingleChoice, domain.QuestionTypeMultipleChoice:
		if len(options) == 0 {
			return NewValidationError("choice questions require at least one option")
		}
		seen := make(map[string]bool, len(options))
		for _, option := range options {
			label := strings.TrimSpace(option)
			if label == "" {
				return NewValidationError("choice options must be non-empty labels")
			}
			if seen[label] {
				return NewValidationError("choice options must be distinct: " + label)
			}
			seen[label] = true
		}
		return nil
	case domain.QuestionTypeFreeText:
		if len(options) != 0 {
			return NewValidationError("free text questions must not declare options")
		}
		return nil
	default:
		return NewValidationError("unrecognized question type: " + questionType)
	}
}
