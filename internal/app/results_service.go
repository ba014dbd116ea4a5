/**
 * @description
 * The results aggregator. It reads raw per-member responses for a survey and
 * produces a per-question tally: choice questions get a count per declared
 * option (options with zero responses are still reported, derived from the
 * question definition rather than observed data), free-text questions get the
 * raw collection of answers. Also the write side of the collector boundary: the
 * ingestion of individual response rows for active surveys.
 *
 * @dependencies
 * - context, errors, strings: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain, internal/store: Domain models and data access.
 */

package app

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/pollcraft/survey-service/internal/domain"
	"github.com/pollcraft/survey-service/internal/store"
)

// ResultsService aggregates survey responses and ingests collector submissions.
type ResultsService struct {
	repo store.Repository
}

// NewResultsService creates a new results aggregator instance.
func NewResultsService(repo store.Repository) *ResultsService {
	return &ResultsService{repo: repo}
}

// Aggregate builds the per-question results view for an owned survey. A survey
// with no responses yields a well-formed tally with zero counts.
func (s *ResultsService) Aggregate(ctx context.Context, ownerID, surveyID uuid.UUID) (*domain.SurveyResults, error) {
	survey, err := s.repo.FindSurveyByID(ctx, surveyID)
	if err != nil {
		if errors.Is(err, store.ErrSurveyNotFound) {
			return nil, NewNotFoundError("survey not found")
		}
		return nil, err
	}
	if survey.OwnerID != ownerID {
		return nil, NewNotFoundError("survey not found")
	}

	questions, err := s.repo.FindQuestionsByIDs(ctx, survey.QuestionIDs)
	if err != nil {
		return nil, err
	}
	questionsByID := make(map[uuid.UUID]domain.Question, len(questions))
	for _, question := range questions {
		questionsByID[question.ID] = question
	}

	responses, err := s.repo.ListResponsesBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	responsesByQuestion := make(map[uuid.UUID][]domain.Response)
	for _, response := range responses {
		responsesByQuestion[response.QuestionID] = append(responsesByQuestion[response.QuestionID], response)
	}

	results := &domain.SurveyResults{
		SurveyID:       surveyID,
		TotalResponses: int64(len(responses)),
		Questions:      make([]domain.QuestionTally, 0, len(survey.QuestionIDs)),
	}
	for i, questionID := range survey.QuestionIDs {
		question, ok := questionsByID[questionID]
		if !ok {
			continue
		}
		results.Questions = append(results.Questions,
			tallyQuestion(question, i+1, responsesByQuestion[questionID]))
	}
	return results, nil
}

// SubmitResponse ingests one member's answer to one question of an active survey.
func (s *ResultsService) SubmitResponse(ctx context.Context, surveyID uuid.UUID, req domain.SubmitResponseRequest) (*domain.Response, error) {
	if strings.TrimSpace(req.AnswerValue) == "" {
		return nil, NewValidationError("answer value is required")
	}

	survey, err := s.repo.FindSurveyByID(ctx, surveyID)
	if err != nil {
		if errors.Is(err, store.ErrSurveyNotFound) {
			return nil, NewNotFoundError("survey not found")
		}
		return nil, err
	}
	if survey.Status != domain.SurveyStatusActive {
		return nil, NewConflictError("responses are only accepted for active surveys")
	}
	attached := false
	for _, questionID := range survey.QuestionIDs {
		if questionID == req.QuestionID {
			attached = true
			break
		}
	}
	if !attached {
		return nil, NewNotFoundError("question is not part of this survey")
	}

	response := &domain.Response{
		ID:          uuid.New(),
		SurveyID:    surveyID,
		QuestionID:  req.QuestionID,
		MemberID:    req.MemberID,
		AnswerValue: req.AnswerValue,
	}
	if err := s.repo.CreateResponse(ctx, response); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateResponse):
			return nil, NewConflictError("this member already answered this question")
		case errors.Is(err, store.ErrMemberNotFound):
			return nil, NewNotFoundError("audience member not found")
		case errors.Is(err, store.ErrQuestionNotFound):
			return nil, NewNotFoundError("question not found")
		default:
			return nil, err
		}
	}
	return response, nil
}

// tallyQuestion groups one question's responses. Multiple-choice answers carry
// the selected labels comma-separated; each selection counts once.
func tallyQuestion(question domain.Question, orderNumber int, responses []domain.Response) domain.QuestionTally {
	tally := domain.QuestionTally{
		QuestionID:   question.ID,
		Title:        question.Title,
		QuestionType: question.Type,
		OrderNumber:  orderNumber,
		Total:        int64(len(responses)),
	}

	if question.Type == domain.QuestionTypeFreeText {
		tally.Answers = make([]string, 0, len(responses))
		for _, response := range responses {
			tally.Answers = append(tally.Answers, response.AnswerValue)
		}
		return tally
	}

	// Seed every declared choice so zero-count options are reported.
	tally.Counts = make(map[string]int64, len(question.Options))
	for _, option := range question.Options {
		tally.Counts[option] = 0
	}
	for _, response := range responses {
		selections := []string{response.AnswerValue}
		if question.Type == domain.QuestionTypeMultipleChoice {
			selections = strings.Split(response.AnswerValue, ",")
		}
		for _, selection := range selections {
			label := strings.TrimSpace(selection)
			if _, declared := tally.Counts[label]; declared {
				tally.Counts[label]++
			}
		}
	}
	return tally
}
