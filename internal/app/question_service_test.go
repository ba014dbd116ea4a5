package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pollcraft/survey-service/internal/domain"
	"github.com/pollcraft/survey-service/internal/store"
)

type questionRepoStub struct {
	store.Repository

	createCalled bool
	created      *domain.Question
	questions    []domain.Question
}

func (s *questionRepoStub) CreateQuestion(ctx context.Context, question *domain.Question) error {
	s.createCalled = true
	s.created = question
	return nil
}

func (s *questionRepoStub) ListQuestionsByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Question, error) {
	return s.questions, nil
}

func TestCreateQuestion_OptionValidation(t *testing.T) {
	repo := &questionRepoStub{}
	service := NewQuestionService(repo)

	cases := []struct {
		name    string
		req     domain.CreateQuestionRequest
		wantErr bool
	}{
		{"single choice with options", domain.CreateQuestionRequest{Title: "Favorite color?", Type: domain.QuestionTypeSingleChoice, Options: []string{"Red", "Blue"}}, false},
		{"single choice without options", domain.CreateQuestionRequest{Title: "t", Type: domain.QuestionTypeSingleChoice}, true},
		{"multiple choice with options", domain.CreateQuestionRequest{Title: "t", Type: domain.QuestionTypeMultipleChoice, Options: []string{"A", "B", "C"}}, false},
		{"multiple choice without options", domain.CreateQuestionRequest{Title: "t", Type: domain.QuestionTypeMultipleChoice}, true},
		{"choice with blank option", domain.CreateQuestionRequest{Title: "t", Type: domain.QuestionTypeSingleChoice, Options: []string{"A", "  "}}, true},
		{"choice with duplicate option", domain.CreateQuestionRequest{Title: "t", Type: domain.QuestionTypeSingleChoice, Options: []string{"A", "A"}}, true},
		{"free text without options", domain.CreateQuestionRequest{Title: "Tell us more", Type: domain.QuestionTypeFreeText}, false},
		{"free text with options", domain.CreateQuestionRequest{Title: "t", Type: domain.QuestionTypeFreeText, Options: []string{"A"}}, true},
		{"unknown type", domain.CreateQuestionRequest{Title: "t", Type: "ranking"}, true},
		{"empty title", domain.CreateQuestionRequest{Title: "  ", Type: domain.QuestionTypeFreeText}, true},
	}

	for _, tc := range cases {
		_, err := service.Create(context.Background(), uuid.New(), tc.req)
		if tc.wantErr {
			svcErr, ok := AsServiceError(err)
			if !ok || svcErr.Kind != KindValidation {
				t.Fatalf("%s: expected validation error, got %v", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: expected nil error, got %v", tc.name, err)
		}
	}
}

func TestCreateQuestion_PreservesOptionOrder(t *testing.T) {
	repo := &questionRepoStub{}
	service := NewQuestionService(repo)

	question, err := service.Create(context.Background(), uuid.New(), domain.CreateQuestionRequest{
		Title:   "Which brands do you recognize?",
		Type:    domain.QuestionTypeMultipleChoice,
		Options: []string{"Acme", "Globex", "Initech"},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(question.Options) != 3 || question.Options[0] != "Acme" || question.Options[2] != "Initech" {
		t.Fatalf("expected declared option order preserved, got %v", question.Options)
	}
	if !repo.createCalled {
		t.Fatal("expected the question to be persisted")
	}
}
