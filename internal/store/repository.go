/**
 * @description
 * This file defines the `Repository` interface, the contract for all data access
 * required by the survey service. The interface decouples the business logic in
 * `internal/app` from the PostgreSQL implementation, which keeps the services
 * testable against in-memory stubs.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/pollcraft/survey-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// User methods
	CreateUser(ctx context.Context, user *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// Token ledger methods. Credit and Debit run the duplicate/balance checks,
	// the log append and the balance update inside one database transaction
	// holding the user's balance row lock.
	CreditTokens(ctx context.Context, userID uuid.UUID, amount int64, externalReference string) (*domain.LedgerEntryResult, error)
	DebitTokens(ctx context.Context, userID uuid.UUID, amount int64, reason string) (*domain.LedgerEntryResult, error)
	GetTokenBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	ListTokenTransactions(ctx context.Context, userID uuid.UUID, opts domain.LedgerHistoryOptions) ([]domain.TokenTransaction, error)

	// Audience registry methods
	CreateAudience(ctx context.Context, audience *domain.Audience) error
	FindAudienceByID(ctx context.Context, audienceID uuid.UUID) (*domain.Audience, error)
	ListAudiencesByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Audience, error)
	ListPanelMembers(ctx context.Context) ([]domain.PanelMember, error)
	ReplaceAudienceMembers(ctx context.Context, audienceID uuid.UUID, members []domain.AudienceMember) error
	ListAudienceMembers(ctx context.Context, audienceID uuid.UUID) ([]domain.AudienceMember, error)

	// Question catalog methods
	CreateQuestion(ctx context.Context, question *domain.Question) error
	ListQuestionsByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Question, error)
	FindQuestionsByIDs(ctx context.Context, questionIDs []uuid.UUID) ([]domain.Question, error)

	// Survey assembler methods. CreateSurveyWithQuestions persists the survey and
	// its ordered join rows atomically; ActivateSurvey combines the draft check,
	// the ledger debit and the status flip in one transaction.
	CreateSurveyWithQuestions(ctx context.Context, survey *domain.Survey, questionIDs []uuid.UUID) error
	FindSurveyByID(ctx context.Context, surveyID uuid.UUID) (*domain.Survey, error)
	ListSurveysByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Survey, error)
	ActivateSurvey(ctx context.Context, surveyID uuid.UUID) (*domain.LedgerEntryResult, error)
	CloseSurvey(ctx context.Context, surveyID uuid.UUID) error
	AddSurveyQuestion(ctx context.Context, surveyID, questionID uuid.UUID, orderNumber int) error
	RemoveSurveyQuestion(ctx context.Context, surveyID, questionID uuid.UUID) error

	// Response methods
	CreateResponse(ctx context.Context, response *domain.Response) error
	ListResponsesBySurvey(ctx context.Context, surveyID uuid.UUID) ([]domain.Response, error)
}
