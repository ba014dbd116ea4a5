/**
 * @description
 * The survey assembler. It orchestrates survey creation (validating the audience
 * and question references before persisting the draft and its ordered question
 * rows atomically), the owner-funded activation step (draft re-check, ledger
 * debit and status flip in one repository transaction), draft-only question set
 * edits, closing, and reads.
 *
 * State machine per survey: draft -> active -> closed. Any other transition is a
 * conflict.
 *
 * @dependencies
 * - context, errors, log: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/rabbitmq: Activation event publication for the response pipeline.
 */

package app

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/pollcraft/survey-service/internal/domain"
	"github.com/pollcraft/survey-service/internal/store"
	"github.com/pollcraft/survey-service/pkg/rabbitmq"
)

// SurveyService provides the core business logic for survey assembly.
type SurveyService struct {
	repo          store.Repository
	eventProducer rabbitmq.Publisher
}

// NewSurveyService creates a new survey assembler instance.
func NewSurveyService(repo store.Repository, producer rabbitmq.Publisher) *SurveyService {
	return &SurveyService{repo: repo, eventProducer: producer}
}

// Create validates the referenced audience and questions, then persists the
// survey in draft status with its question order assigned 1..N from the input
// order. The ledger is not touched until activation.
func (s *SurveyService) Create(ctx context.Context, ownerID uuid.UUID, req domain.CreateSurveyRequest) (*domain.Survey, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, NewValidationError("survey title is required")
	}
	if req.TokenCost <= 0 {
		return nil, NewValidationError("token cost must be positive")
	}
	if len(req.QuestionIDs) == 0 {
		return nil, NewValidationError("a survey requires at least one question")
	}
	seen := make(map[uuid.UUID]bool, len(req.QuestionIDs))
	for _, questionID := range req.QuestionIDs {
		if seen[questionID] {
			return nil, NewValidationError("duplicate question id: " + questionID.String())
		}
		seen[questionID] = true
	}

	audience, err := s.repo.FindAudienceByID(ctx, req.AudienceID)
	if err != nil {
		if errors.Is(err, store.ErrAudienceNotFound) {
			return nil, NewNotFoundError("audience not found")
		}
		return nil, err
	}
	if audience.OwnerID != ownerID {
		return nil, NewNotFoundError("audience not found")
	}

	questions, err := s.repo.FindQuestionsByIDs(ctx, req.QuestionIDs)
	if err != nil {
		return nil, err
	}
	if len(questions) != len(req.QuestionIDs) {
		return nil, NewNotFoundError("one or more question ids do not exist")
	}

	survey := &domain.Survey{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		AudienceID:  req.AudienceID,
		TokenCost:   req.TokenCost,
	}
	if err := s.repo.CreateSurveyWithQuestions(ctx, survey, req.QuestionIDs); err != nil {
		return nil, classifySurveyError(err)
	}
	return survey, nil
}

// Activate performs the owner-funded draft -> active transition. The repository
// runs the draft re-check, the SURVEY_DEBIT and the status flip in one database
// transaction; on insufficient balance the survey stays in draft and nothing is
// debited.
func (s *SurveyService) Activate(ctx context.Context, ownerID, surveyID uuid.UUID) (*domain.ActivateSurveyResult, error) {
	if _, err := s.ownedSurvey(ctx, ownerID, surveyID); err != nil {
		return nil, err
	}

	entry, err := s.repo.ActivateSurvey(ctx, surveyID)
	if err != nil {
		return nil, classifySurveyError(err)
	}

	survey, err := s.repo.FindSurveyByID(ctx, surveyID)
	if err != nil {
		return nil, classifySurveyError(err)
	}

	if s.eventProducer != nil {
		event := rabbitmq.SurveyActivatedEvent{
			SurveyID:   survey.ID,
			OwnerID:    survey.OwnerID,
			AudienceID: survey.AudienceID,
			TokenCost:  survey.TokenCost,
		}
		if err := s.eventProducer.PublishSurveyActivated(ctx, event); err != nil {
			log.Printf("level=warn component=survey msg=\"activation event publish failed\" survey_id=%s err=%v", survey.ID, err)
		}
	}

	return &domain.ActivateSurveyResult{
		Survey:        survey,
		TransactionID: entry.TransactionID,
		NewBalance:    entry.NewBalance,
	}, nil
}

// Close transitions active -> closed. The activation debit is not refunded.
func (s *SurveyService) Close(ctx context.Context, ownerID, surveyID uuid.UUID) (*domain.Survey, error) {
	if _, err := s.ownedSurvey(ctx, ownerID, surveyID); err != nil {
		return nil, err
	}
	if err := s.repo.CloseSurvey(ctx, surveyID); err != nil {
		return nil, classifySurveyError(err)
	}
	survey, err := s.repo.FindSurveyByID(ctx, surveyID)
	if err != nil {
		return nil, classifySurveyError(err)
	}
	return survey, nil
}

// AddQuestion inserts a question into a draft survey at the given position,
// shifting later questions up by one.
func (s *SurveyService) AddQuestion(ctx context.Context, ownerID, surveyID uuid.UUID, req domain.AddSurveyQuestionRequest) (*domain.Survey, error) {
	if _, err := s.ownedSurvey(ctx, ownerID, surveyID); err != nil {
		return nil, err
	}
	if err := s.repo.AddSurveyQuestion(ctx, surveyID, req.QuestionID, req.OrderNumber); err != nil {
		return nil, classifySurveyError(err)
	}
	return s.Get(ctx, ownerID, surveyID)
}

// RemoveQuestion removes a question from a draft survey, re-sequencing the
// remaining order numbers to stay contiguous from 1.
func (s *SurveyService) RemoveQuestion(ctx context.Context, ownerID, surveyID, questionID uuid.UUID) (*domain.Survey, error) {
	if _, err := s.ownedSurvey(ctx, ownerID, surveyID); err != nil {
		return nil, err
	}
	if err := s.repo.RemoveSurveyQuestion(ctx, surveyID, questionID); err != nil {
		return nil, classifySurveyError(err)
	}
	return s.Get(ctx, ownerID, surveyID)
}

// Get returns one owned survey with its ordered question ids.
func (s *SurveyService) Get(ctx context.Context, ownerID, surveyID uuid.UUID) (*domain.Survey, error) {
	return s.ownedSurvey(ctx, ownerID, surveyID)
}

// List returns the surveys owned by the user, each with ordered question ids.
func (s *SurveyService) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Survey, error) {
	return s.repo.ListSurveysByOwner(ctx, ownerID)
}

func (s *SurveyService) ownedSurvey(ctx context.Context, ownerID, surveyID uuid.UUID) (*domain.Survey, error) {
	survey, err := s.repo.FindSurveyByID(ctx, surveyID)
	if err != nil {
		return nil, classifySurveyError(err)
	}
	if survey.OwnerID != ownerID {
		return nil, NewNotFoundError("survey not found")
	}
	return survey, nil
}

func classifySurveyError(err error) error {
	switch {
	case errors.Is(err, store.ErrSurveyNotFound):
		return NewNotFoundError("survey not found")
	case errors.Is(err, store.ErrAudienceNotFound):
		return NewNotFoundError("audience not found")
	case errors.Is(err, store.ErrQuestionNotFound):
		return NewNotFoundError("question not found")
	case errors.Is(err, store.ErrQuestionNotInSurvey):
		return NewNotFoundError("question is not part of this survey")
	case errors.Is(err, store.ErrSurveyNotDraft):
		return NewConflictError("survey is not editable: only draft surveys can be modified or activated")
	case errors.Is(err, store.ErrSurveyNotActive):
		return NewConflictError("only active surveys can be closed")
	case errors.Is(err, store.ErrQuestionInSurvey):
		return NewConflictError("question is already attached to this survey")
	case errors.Is(err, store.ErrInsufficientTokens):
		return NewInsufficientTokensError("token balance is too low to activate this survey")
	case errors.Is(err, store.ErrBalanceMismatch):
		log.Printf("level=error component=survey msg=\"balance drift detected during activation\" err=%v", err)
		return NewIntegrityError("ledger integrity violation detected; operator intervention required")
	default:
		return err
	}
}
