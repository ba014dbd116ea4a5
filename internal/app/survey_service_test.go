package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pollcraft/survey-service/internal/domain"
	"github.com/pollcraft/survey-service/internal/store"
)

type surveyRepoStub struct {
	store.Repository

	audience    *domain.Audience
	audienceErr error

	questions    []domain.Question
	questionsErr error

	survey    *domain.Survey
	surveyErr error

	createCalled      bool
	createdSurvey     *domain.Survey
	createdQuestions  []uuid.UUID
	createSurveyErr   error
	activateResult    *domain.LedgerEntryResult
	activateErr       error
	activateCalled    bool
	closeErr          error
	closeCalled       bool
	addQuestionErr    error
	addOrder          int
	removeQuestionErr error
}

func (s *surveyRepoStub) FindAudienceByID(ctx context.Context, audienceID uuid.UUID) (*domain.Audience, error) {
	if s.audienceErr != nil {
		return nil, s.audienceErr
	}
	return s.audience, nil
}

func (s *surveyRepoStub) FindQuestionsByIDs(ctx context.Context, questionIDs []uuid.UUID) ([]domain.Question, error) {
	if s.questionsErr != nil {
		return nil, s.questionsErr
	}
	return s.questions, nil
}

func (s *surveyRepoStub) FindSurveyByID(ctx context.Context, surveyID uuid.UUID) (*domain.Survey, error) {
	if s.surveyErr != nil {
		return nil, s.surveyErr
	}
	return s.survey, nil
}

func (s *surveyRepoStub) CreateSurveyWithQuestions(ctx context.Context, survey *domain.Survey, questionIDs []uuid.UUID) error {
	s.createCalled = true
	s.createdSurvey = survey
	s.createdQuestions = questionIDs
	return s.createSurveyErr
}

func (s *surveyRepoStub) ActivateSurvey(ctx context.Context, surveyID uuid.UUID) (*domain.LedgerEntryResult, error) {
	s.activateCalled = true
	if s.activateErr != nil {
		return nil, s.activateErr
	}
	return s.activateResult, nil
}

func (s *surveyRepoStub) CloseSurvey(ctx context.Context, surveyID uuid.UUID) error {
	s.closeCalled = true
	return s.closeErr
}

func (s *surveyRepoStub) AddSurveyQuestion(ctx context.Context, surveyID, questionID uuid.UUID, orderNumber int) error {
	s.addOrder = orderNumber
	return s.addQuestionErr
}

func (s *surveyRepoStub) RemoveSurveyQuestion(ctx context.Context, surveyID, questionID uuid.UUID) error {
	return s.removeQuestionErr
}

func newDraftSurvey(ownerID uuid.UUID, questionIDs ...uuid.UUID) *domain.Survey {
	return &domain.Survey{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       "Brand awareness Q3",
		AudienceID:  uuid.New(),
		TokenCost:   300,
		Status:      domain.SurveyStatusDraft,
		QuestionIDs: questionIDs,
	}
}

func TestCreateSurvey_ValidationFailures(t *testing.T) {
	ownerID := uuid.New()
	questionID := uuid.New()
	repo := &surveyRepoStub{}
	service := NewSurveyService(repo, nil)

	cases := []struct {
		name string
		req  domain.CreateSurveyRequest
	}{
		{"empty title", domain.CreateSurveyRequest{Title: "  ", TokenCost: 100, QuestionIDs: []uuid.UUID{questionID}}},
		{"zero cost", domain.CreateSurveyRequest{Title: "t", TokenCost: 0, QuestionIDs: []uuid.UUID{questionID}}},
		{"negative cost", domain.CreateSurveyRequest{Title: "t", TokenCost: -10, QuestionIDs: []uuid.UUID{questionID}}},
		{"no questions", domain.CreateSurveyRequest{Title: "t", TokenCost: 100}},
		{"duplicate questions", domain.CreateSurveyRequest{Title: "t", TokenCost: 100, QuestionIDs: []uuid.UUID{questionID, questionID}}},
	}

	for _, tc := range cases {
		_, err := service.Create(context.Background(), ownerID, tc.req)
		svcErr, ok := AsServiceError(err)
		if !ok || svcErr.Kind != KindValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
	if repo.createCalled {
		t.Fatal("expected invalid requests to never reach the repository")
	}
}

func TestCreateSurvey_ForeignAudienceLooksLikeMissing(t *testing.T) {
	ownerID := uuid.New()
	questionID := uuid.New()
	repo := &surveyRepoStub{
		audience: &domain.Audience{ID: uuid.New(), OwnerID: uuid.New(), DeclaredSize: 50},
	}
	service := NewSurveyService(repo, nil)

	_, err := service.Create(context.Background(), ownerID, domain.CreateSurveyRequest{
		Title:       "t",
		TokenCost:   100,
		AudienceID:  repo.audience.ID,
		QuestionIDs: []uuid.UUID{questionID},
	})
	svcErr, ok := AsServiceError(err)
	if !ok || svcErr.Kind != KindNotFound {
		t.Fatalf("expected not found for another owner's audience, got %v", err)
	}
}

func TestCreateSurvey_MissingQuestionRejected(t *testing.T) {
	ownerID := uuid.New()
	repo := &surveyRepoStub{
		audience:  &domain.Audience{ID: uuid.New(), OwnerID: ownerID, DeclaredSize: 50},
		questions: []domain.Question{{ID: uuid.New(), OwnerID: ownerID}},
	}
	service := NewSurveyService(repo, nil)

	_, err := service.Create(context.Background(), ownerID, domain.CreateSurveyRequest{
		Title:       "t",
		TokenCost:   100,
		AudienceID:  repo.audience.ID,
		QuestionIDs: []uuid.UUID{uuid.New(), uuid.New()},
	})
	svcErr, ok := AsServiceError(err)
	if !ok || svcErr.Kind != KindNotFound {
		t.Fatalf("expected not found for missing question ids, got %v", err)
	}
}

func TestCreateSurvey_PersistsDraftWithOrderedQuestions(t *testing.T) {
	ownerID := uuid.New()
	first, second := uuid.New(), uuid.New()
	repo := &surveyRepoStub{
		audience: &domain.Audience{ID: uuid.New(), OwnerID: ownerID, DeclaredSize: 50},
		questions: []domain.Question{
			{ID: first, OwnerID: ownerID},
			{ID: second, OwnerID: ownerID},
		},
	}
	service := NewSurveyService(repo, nil)

	survey, err := service.Create(context.Background(), ownerID, domain.CreateSurveyRequest{
		Title:       "  Brand awareness Q3 ",
		TokenCost:   300,
		AudienceID:  repo.audience.ID,
		QuestionIDs: []uuid.UUID{first, second},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if survey.Title != "Brand awareness Q3" {
		t.Fatalf("expected trimmed title, got %q", survey.Title)
	}
	if len(repo.createdQuestions) != 2 || repo.createdQuestions[0] != first || repo.createdQuestions[1] != second {
		t.Fatalf("expected question ids persisted in input order, got %v", repo.createdQuestions)
	}
}

func TestActivateSurvey_ReturnsDebitDetails(t *testing.T) {
	ownerID := uuid.New()
	survey := newDraftSurvey(ownerID, uuid.New())
	entry := &domain.LedgerEntryResult{TransactionID: uuid.New(), NewBalance: 700}
	repo := &surveyRepoStub{survey: survey, activateResult: entry}
	service := NewSurveyService(repo, nil)

	result, err := service.Activate(context.Background(), ownerID, survey.ID)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !repo.activateCalled {
		t.Fatal("expected repository activation to run")
	}
	if result.TransactionID != entry.TransactionID || result.NewBalance != 700 {
		t.Fatalf("expected debit details from the ledger entry, got %+v", result)
	}
}

func TestActivateSurvey_InsufficientTokensLeavesDraft(t *testing.T) {
	ownerID := uuid.New()
	survey := newDraftSurvey(ownerID, uuid.New())
	repo := &surveyRepoStub{survey: survey, activateErr: store.ErrInsufficientTokens}
	service := NewSurveyService(repo, nil)

	_, err := service.Activate(context.Background(), ownerID, survey.ID)
	svcErr, ok := AsServiceError(err)
	if !ok || svcErr.Kind != KindInsufficientTokens {
		t.Fatalf("expected insufficient tokens error, got %v", err)
	}
}

func TestActivateSurvey_NonDraftIsConflict(t *testing.T) {
	ownerID := uuid.New()
	survey := newDraftSurvey(ownerID, uuid.New())
	survey.Status = domain.SurveyStatusActive
	repo := &surveyRepoStub{survey: survey, activateErr: store.ErrSurveyNotDraft}
	service := NewSurveyService(repo, nil)

	_, err := service.Activate(context.Background(), ownerID, survey.ID)
	svcErr, ok := AsServiceError(err)
	if !ok || svcErr.Kind != KindConflict {
		t.Fatalf("expected conflict for non-draft activation, got %v", err)
	}
}

func TestActivateSurvey_ForeignOwnerLooksLikeMissing(t *testing.T) {
	survey := newDraftSurvey(uuid.New(), uuid.New())
	repo := &surveyRepoStub{survey: survey}
	service := NewSurveyService(repo, nil)

	_, err := service.Activate(context.Background(), uuid.New(), survey.ID)
	svcErr, ok := AsServiceError(err)
	if !ok || svcErr.Kind != KindNotFound {
		t.Fatalf("expected not found for another owner's survey, got %v", err)
	}
	if repo.activateCalled {
		t.Fatal("expected the ledger to stay untouched for foreign surveys")
	}
}

func TestCloseSurvey_OnlyActiveCloses(t *testing.T) {
	ownerID := uuid.New()
	survey := newDraftSurvey(ownerID, uuid.New())
	repo := &surveyRepoStub{survey: survey, closeErr: store.ErrSurveyNotActive}
	service := NewSurveyService(repo, nil)

	_, err := service.Close(context.Background(), ownerID, survey.ID)
	svcErr, ok := AsServiceError(err)
	if !ok || svcErr.Kind != KindConflict {
		t.Fatalf("expected conflict when closing a draft, got %v", err)
	}
}

func TestAddQuestion_DraftOnly(t *testing.T) {
	ownerID := uuid.New()
	survey := newDraftSurvey(ownerID, uuid.New())
	survey.Status = domain.SurveyStatusActive
	repo := &surveyRepoStub{survey: survey, addQuestionErr: store.ErrSurveyNotDraft}
	service := NewSurveyService(repo, nil)

	_, err := service.AddQuestion(context.Background(), ownerID, survey.ID, domain.AddSurveyQuestionRequest{
		QuestionID:  uuid.New(),
		OrderNumber: 1,
	})
	svcErr, ok := AsServiceError(err)
	if !ok || svcErr.Kind != KindConflict {
		t.Fatalf("expected conflict for active survey edit, got %v", err)
	}
}

func TestAddQuestion_DuplicateAttachmentIsConflict(t *testing.T) {
	ownerID := uuid.New()
	questionID := uuid.New()
	survey := newDraftSurvey(ownerID, questionID)
	repo := &surveyRepoStub{survey: survey, addQuestionErr: store.ErrQuestionInSurvey}
	service := NewSurveyService(repo, nil)

	_, err := service.AddQuestion(context.Background(), ownerID, survey.ID, domain.AddSurveyQuestionRequest{
		QuestionID:  questionID,
		OrderNumber: 2,
	})
	svcErr, ok := AsServiceError(err)
	if !ok || svcErr.Kind != KindConflict {
		t.Fatalf("expected conflict for re-attaching a question, got %v", err)
	}
}

func TestRemoveQuestion_DetachedQuestionIsMissing(t *testing.T) {
	ownerID := uuid.New()
	survey := newDraftSurvey(ownerID, uuid.New())
	repo := &surveyRepoStub{survey: survey, removeQuestionErr: store.ErrQuestionNotInSurvey}
	service := NewSurveyService(repo, nil)

	_, err := service.RemoveQuestion(context.Background(), ownerID, survey.ID, uuid.New())
	svcErr, ok := AsServiceError(err)
	if !ok || svcErr.Kind != KindNotFound {
		t.Fatalf("expected not found for a detached question, got %v", err)
	}
}
