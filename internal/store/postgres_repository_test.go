package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pollcraft/survey-service/internal/domain"
)

// The tests in this file run against a real PostgreSQL instance because the
// behavior under test lives in the SQL itself: row locks, the deferred order
// constraint and the partial purchase index. Set TEST_POSTGRES_DSN to run them.

func newTestRepository(t *testing.T) (*PostgresRepository, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := RunMigrations(ctx, pool); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return NewPostgresRepository(pool), pool
}

func createTestUser(t *testing.T, repo *PostgresRepository) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("it-%s@pollcraft.test", uuid.NewString()),
		PasswordHash: "x",
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestQuestion(t *testing.T, repo *PostgresRepository, ownerID uuid.UUID) uuid.UUID {
	t.Helper()
	question := &domain.Question{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Title:   "question " + uuid.NewString()[:8],
		Type:    domain.QuestionTypeFreeText,
		Options: []string{},
	}
	if err := repo.CreateQuestion(context.Background(), question); err != nil {
		t.Fatalf("create question: %v", err)
	}
	return question.ID
}

func createDraftSurvey(t *testing.T, repo *PostgresRepository, ownerID uuid.UUID, questionIDs []uuid.UUID) *domain.Survey {
	t.Helper()
	audience := &domain.Audience{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Name:         "audience " + uuid.NewString()[:8],
		DeclaredSize: 10,
		Demographics: map[string]string{},
	}
	if err := repo.CreateAudience(context.Background(), audience); err != nil {
		t.Fatalf("create audience: %v", err)
	}
	survey := &domain.Survey{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Title:      "survey " + uuid.NewString()[:8],
		AudienceID: audience.ID,
		TokenCost:  25,
	}
	if err := repo.CreateSurveyWithQuestions(context.Background(), survey, questionIDs); err != nil {
		t.Fatalf("create survey: %v", err)
	}
	return survey
}

// surveyQuestionOrder reads the join rows ordered by position, returning the
// question ids and the raw order numbers.
func surveyQuestionOrder(t *testing.T, pool *pgxpool.Pool, surveyID uuid.UUID) ([]uuid.UUID, []int) {
	t.Helper()
	rows, err := pool.Query(context.Background(), `
		SELECT question_id, order_number FROM survey_questions
		WHERE survey_id = $1
		ORDER BY order_number`, surveyID)
	if err != nil {
		t.Fatalf("query survey_questions: %v", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	var orders []int
	for rows.Next() {
		var id uuid.UUID
		var order int
		if err := rows.Scan(&id, &order); err != nil {
			t.Fatalf("scan survey_questions: %v", err)
		}
		ids = append(ids, id)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate survey_questions: %v", err)
	}
	return ids, orders
}

func assertContiguousOrder(t *testing.T, orders []int) {
	t.Helper()
	for i, order := range orders {
		if order != i+1 {
			t.Fatalf("order numbers not contiguous: got %v", orders)
		}
	}
}

func TestSurveyQuestionOrder_ContiguousAfterRandomizedEdits(t *testing.T) {
	repo, pool := newTestRepository(t)
	ctx := context.Background()

	owner := createTestUser(t, repo)
	initial := []uuid.UUID{
		createTestQuestion(t, repo, owner.ID),
		createTestQuestion(t, repo, owner.ID),
		createTestQuestion(t, repo, owner.ID),
	}
	survey := createDraftSurvey(t, repo, owner.ID, initial)

	// Mirror of the expected ordering, updated alongside every call.
	expected := append([]uuid.UUID(nil), initial...)

	rng := rand.New(rand.NewSource(42))
	for step := 0; step < 40; step++ {
		addTurn := len(expected) == 0 || rng.Intn(2) == 0
		if addTurn {
			questionID := createTestQuestion(t, repo, owner.ID)
			// Positions 0 and len+2 are out of range and must append.
			position := rng.Intn(len(expected) + 3)
			if err := repo.AddSurveyQuestion(ctx, survey.ID, questionID, position); err != nil {
				t.Fatalf("step %d: add at %d: %v", step, position, err)
			}
			if position < 1 || position > len(expected)+1 {
				expected = append(expected, questionID)
			} else {
				expected = append(expected, uuid.Nil)
				copy(expected[position:], expected[position-1:])
				expected[position-1] = questionID
			}
		} else {
			victim := expected[rng.Intn(len(expected))]
			if err := repo.RemoveSurveyQuestion(ctx, survey.ID, victim); err != nil {
				t.Fatalf("step %d: remove: %v", step, err)
			}
			kept := expected[:0]
			for _, id := range expected {
				if id != victim {
					kept = append(kept, id)
				}
			}
			expected = kept
		}

		ids, orders := surveyQuestionOrder(t, pool, survey.ID)
		assertContiguousOrder(t, orders)
		if len(ids) != len(expected) {
			t.Fatalf("step %d: got %d rows, want %d", step, len(ids), len(expected))
		}
		for i := range ids {
			if ids[i] != expected[i] {
				t.Fatalf("step %d: position %d holds %s, want %s", step, i+1, ids[i], expected[i])
			}
		}
	}
}

func TestSurveyQuestionOrder_DuplicateAddRollsBackShift(t *testing.T) {
	repo, pool := newTestRepository(t)
	ctx := context.Background()

	owner := createTestUser(t, repo)
	questions := []uuid.UUID{
		createTestQuestion(t, repo, owner.ID),
		createTestQuestion(t, repo, owner.ID),
	}
	survey := createDraftSurvey(t, repo, owner.ID, questions)

	err := repo.AddSurveyQuestion(ctx, survey.ID, questions[0], 1)
	if !errors.Is(err, ErrQuestionInSurvey) {
		t.Fatalf("expected ErrQuestionInSurvey, got %v", err)
	}

	// The failed insert must not leave the shift applied.
	ids, orders := surveyQuestionOrder(t, pool, survey.ID)
	assertContiguousOrder(t, orders)
	if len(ids) != 2 || ids[0] != questions[0] || ids[1] != questions[1] {
		t.Fatalf("unexpected order after rollback: %v", ids)
	}
}

func TestConcurrentDebits_NeverOverdraw(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	user := createTestUser(t, repo)
	if _, err := repo.CreditTokens(ctx, user.ID, 50, "purchase-"+uuid.NewString()); err != nil {
		t.Fatalf("credit: %v", err)
	}

	const debits = 10
	errs := make([]error, debits)
	var wg sync.WaitGroup
	for i := 0; i < debits; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = repo.DebitTokens(ctx, user.ID, 10, domain.ReasonSurveyDebit)
		}()
	}
	wg.Wait()

	var succeeded int
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientTokens):
		default:
			t.Fatalf("debit %d: unexpected error %v", i, err)
		}
	}
	if succeeded != 5 {
		t.Fatalf("expected exactly 5 debits to succeed, got %d", succeeded)
	}

	balance, err := repo.GetTokenBalance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected balance 0 after exhausting debits, got %d", balance)
	}
	assertBalanceMatchesLog(t, repo, user.ID)
}

// assertBalanceMatchesLog replays the transaction log and compares its sum to
// the cached balance.
func assertBalanceMatchesLog(t *testing.T, repo *PostgresRepository, userID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	var logSum int64
	err := repo.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(delta), 0) FROM token_transactions WHERE user_id = $1`, userID).Scan(&logSum)
	if err != nil {
		t.Fatalf("sum transactions: %v", err)
	}
	balance, err := repo.GetTokenBalance(ctx, userID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != logSum {
		t.Fatalf("cached balance %d diverged from log sum %d", balance, logSum)
	}
}

func TestLedger_BalanceMatchesLogAfterMixedOperations(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	user := createTestUser(t, repo)
	ref := "purchase-" + uuid.NewString()

	if _, err := repo.CreditTokens(ctx, user.ID, 100, ref); err != nil {
		t.Fatalf("credit: %v", err)
	}
	assertBalanceMatchesLog(t, repo, user.ID)

	// Replaying the same purchase reference fails and changes nothing.
	if _, err := repo.CreditTokens(ctx, user.ID, 100, ref); !errors.Is(err, ErrDuplicateReference) {
		t.Fatalf("expected ErrDuplicateReference on replay, got %v", err)
	}
	assertBalanceMatchesLog(t, repo, user.ID)

	if _, err := repo.DebitTokens(ctx, user.ID, 30, domain.ReasonSurveyDebit); err != nil {
		t.Fatalf("debit: %v", err)
	}
	assertBalanceMatchesLog(t, repo, user.ID)

	if _, err := repo.DebitTokens(ctx, user.ID, 1000, domain.ReasonSurveyDebit); !errors.Is(err, ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}
	assertBalanceMatchesLog(t, repo, user.ID)

	balance, err := repo.GetTokenBalance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 70 {
		t.Fatalf("expected balance 70, got %d", balance)
	}
}

func TestActivateSurvey_InsufficientBalanceLeavesDraft(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	owner := createTestUser(t, repo)
	question := createTestQuestion(t, repo, owner.ID)
	survey := createDraftSurvey(t, repo, owner.ID, []uuid.UUID{question})

	if _, err := repo.ActivateSurvey(ctx, survey.ID); !errors.Is(err, ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}

	// The failed activation rolls back entirely: still a draft, nothing debited.
	found, err := repo.FindSurveyByID(ctx, survey.ID)
	if err != nil {
		t.Fatalf("find survey: %v", err)
	}
	if found.Status != domain.SurveyStatusDraft {
		t.Fatalf("expected draft after failed activation, got %s", found.Status)
	}
	entries, err := repo.ListTokenTransactions(ctx, owner.ID, domain.LedgerHistoryOptions{})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no ledger entries after failed activation, got %d", len(entries))
	}
}
