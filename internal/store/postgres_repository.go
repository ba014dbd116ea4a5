/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the SQL needed for users, the token ledger, audiences, questions,
 * surveys and responses.
 *
 * The ledger operations (CreditTokens, DebitTokens, ActivateSurvey) take a
 * `SELECT ... FOR UPDATE` row lock on the user's balance and perform the duplicate
 * check, the drift check, the log append and the balance update inside that one
 * transaction. Two concurrent debits against the same user therefore serialize on
 * the row lock and can never both observe a stale balance.
 *
 * @dependencies
 * - context, encoding/json, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pollcraft/survey-service/internal/domain"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailExists         = errors.New("email already registered")
	ErrDuplicateReference  = errors.New("duplicate external reference")
	ErrInsufficientTokens  = errors.New("insufficient token balance")
	ErrBalanceMismatch     = errors.New("token balance does not match transaction log")
	ErrAudienceNotFound    = errors.New("audience not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrSurveyNotFound      = errors.New("survey not found")
	ErrSurveyNotDraft      = errors.New("survey is not in draft status")
	ErrSurveyNotActive     = errors.New("survey is not active")
	ErrQuestionInSurvey    = errors.New("question already attached to survey")
	ErrQuestionNotInSurvey = errors.New("question not attached to survey")
	ErrMemberNotFound      = errors.New("audience member not found")
	ErrDuplicateResponse   = errors.New("member already answered this question")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// --- User methods ---

func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, token_balance)
		VALUES ($1, $2, $3, 0)
		RETURNING created_at`
	err := r.db.QueryRow(ctx, query, user.ID, user.Email, user.PasswordHash).Scan(&user.CreatedAt)
	if isUniqueViolation(err, "users_email_key") {
		return ErrEmailExists
	}
	return err
}

func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, email, password_hash, token_balance, created_at FROM users WHERE email = $1`
	err := r.db.QueryRow(ctx, query, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.TokenBalance, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, email, password_hash, token_balance, created_at FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.TokenBalance, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// --- Token ledger methods ---

// appendLedgerEntry records one ledger entry inside the caller's transaction.
// It locks the user's balance row, verifies the cached balance still equals the
// log's running sum, rejects overdrafts, appends the entry and updates the cache.
func appendLedgerEntry(ctx context.Context, tx pgx.Tx, userID uuid.UUID, delta int64, reason string, externalReference *string) (*domain.LedgerEntryResult, error) {
	var balance int64
	err := tx.QueryRow(ctx, `SELECT token_balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Drift between the cached balance and the log is corruption, never corrected here.
	var logSum int64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(delta), 0) FROM token_transactions WHERE user_id = $1`, userID).Scan(&logSum); err != nil {
		return nil, err
	}
	if logSum != balance {
		return nil, fmt.Errorf("%w: cached=%d log=%d user=%s", ErrBalanceMismatch, balance, logSum, userID)
	}

	if delta < 0 && balance+delta < 0 {
		return nil, ErrInsufficientTokens
	}

	entryID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO token_transactions (id, user_id, delta, reason, external_reference)
		VALUES ($1, $2, $3, $4, $5)`,
		entryID, userID, delta, reason, externalReference)
	if err != nil {
		if isUniqueViolation(err, "uk_token_transactions_purchase_ref") {
			return nil, ErrDuplicateReference
		}
		return nil, err
	}

	var newBalance int64
	err = tx.QueryRow(ctx, `
		UPDATE users SET token_balance = token_balance + $1 WHERE id = $2
		RETURNING token_balance`,
		delta, userID).Scan(&newBalance)
	if err != nil {
		return nil, err
	}

	return &domain.LedgerEntryResult{TransactionID: entryID, NewBalance: newBalance}, nil
}

// CreditTokens applies a purchase to the user's ledger. Replays with the same
// external reference fail with ErrDuplicateReference and leave the balance unchanged.
func (r *PostgresRepository) CreditTokens(ctx context.Context, userID uuid.UUID, amount int64, externalReference string) (*domain.LedgerEntryResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	result, err := appendLedgerEntry(ctx, tx, userID, amount, domain.ReasonPurchase, &externalReference)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// DebitTokens atomically checks and reduces the user's balance.
func (r *PostgresRepository) DebitTokens(ctx context.Context, userID uuid.UUID, amount int64, reason string) (*domain.LedgerEntryResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	result, err := appendLedgerEntry(ctx, tx, userID, -amount, reason, nil)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetTokenBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `SELECT token_balance FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return balance, nil
}

func (r *PostgresRepository) ListTokenTransactions(ctx context.Context, userID uuid.UUID, opts domain.LedgerHistoryOptions) ([]domain.TokenTransaction, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, user_id, delta, reason, external_reference, created_at
		FROM token_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.TokenTransaction
	for rows.Next() {
		var entry domain.TokenTransaction
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Delta, &entry.Reason, &entry.ExternalReference, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// --- Audience registry methods ---

func (r *PostgresRepository) CreateAudience(ctx context.Context, audience *domain.Audience) error {
	demographics, err := json.Marshal(audience.Demographics)
	if err != nil {
		return fmt.Errorf("marshal demographics: %w", err)
	}
	query := `
		INSERT INTO audiences (id, owner_id, name, description, declared_size, demographics)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	return r.db.QueryRow(ctx, query,
		audience.ID, audience.OwnerID, audience.Name, audience.Description,
		audience.DeclaredSize, demographics).Scan(&audience.CreatedAt)
}

func (r *PostgresRepository) FindAudienceByID(ctx context.Context, audienceID uuid.UUID) (*domain.Audience, error) {
	var audience domain.Audience
	var demographics []byte
	query := `
		SELECT id, owner_id, name, description, declared_size, demographics, created_at
		FROM audiences WHERE id = $1`
	err := r.db.QueryRow(ctx, query, audienceID).Scan(
		&audience.ID, &audience.OwnerID, &audience.Name, &audience.Description,
		&audience.DeclaredSize, &demographics, &audience.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAudienceNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(demographics, &audience.Demographics); err != nil {
		return nil, fmt.Errorf("unmarshal demographics: %w", err)
	}
	return &audience, nil
}

func (r *PostgresRepository) ListAudiencesByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Audience, error) {
	query := `
		SELECT id, owner_id, name, description, declared_size, demographics, created_at
		FROM audiences
		WHERE owner_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audiences []domain.Audience
	for rows.Next() {
		var audience domain.Audience
		var demographics []byte
		if err := rows.Scan(&audience.ID, &audience.OwnerID, &audience.Name, &audience.Description,
			&audience.DeclaredSize, &demographics, &audience.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(demographics, &audience.Demographics); err != nil {
			return nil, fmt.Errorf("unmarshal demographics: %w", err)
		}
		audiences = append(audiences, audience)
	}
	return audiences, rows.Err()
}

// ListPanelMembers returns the full candidate pool in a stable order so that
// audience resolution is deterministic for a fixed pool.
func (r *PostgresRepository) ListPanelMembers(ctx context.Context) ([]domain.PanelMember, error) {
	rows, err := r.db.Query(ctx, `SELECT id, attributes FROM panel_members ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.PanelMember
	for rows.Next() {
		var member domain.PanelMember
		var attributes []byte
		if err := rows.Scan(&member.ID, &attributes); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(attributes, &member.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal panel attributes: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// ReplaceAudienceMembers swaps the materialized member set of an audience in one
// transaction, so readers never observe a half-resolved audience.
func (r *PostgresRepository) ReplaceAudienceMembers(ctx context.Context, audienceID uuid.UUID, members []domain.AudienceMember) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM audience_members WHERE audience_id = $1`, audienceID); err != nil {
		return err
	}
	for i := range members {
		attributes, err := json.Marshal(members[i].Attributes)
		if err != nil {
			return fmt.Errorf("marshal member attributes: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO audience_members (id, audience_id, panel_member_id, attributes)
			VALUES ($1, $2, $3, $4)`,
			members[i].ID, audienceID, members[i].PanelMemberID, attributes)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) ListAudienceMembers(ctx context.Context, audienceID uuid.UUID) ([]domain.AudienceMember, error) {
	query := `
		SELECT id, audience_id, panel_member_id, attributes
		FROM audience_members
		WHERE audience_id = $1
		ORDER BY panel_member_id`
	rows, err := r.db.Query(ctx, query, audienceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.AudienceMember
	for rows.Next() {
		var member domain.AudienceMember
		var attributes []byte
		if err := rows.Scan(&member.ID, &member.AudienceID, &member.PanelMemberID, &attributes); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(attributes, &member.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal member attributes: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// --- Question catalog methods ---

func (r *PostgresRepository) CreateQuestion(ctx context.Context, question *domain.Question) error {
	options, err := json.Marshal(question.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	query := `
		INSERT INTO questions (id, owner_id, title, description, question_type, options)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	return r.db.QueryRow(ctx, query,
		question.ID, question.OwnerID, question.Title, question.Description,
		question.Type, options).Scan(&question.CreatedAt)
}

func (r *PostgresRepository) ListQuestionsByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Question, error) {
	query := `
		SELECT id, owner_id, title, description, question_type, options, created_at
		FROM questions
		WHERE owner_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (r *PostgresRepository) FindQuestionsByIDs(ctx context.Context, questionIDs []uuid.UUID) ([]domain.Question, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, owner_id, title, description, question_type, options, created_at
		FROM questions
		WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, questionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func scanQuestions(rows pgx.Rows) ([]domain.Question, error) {
	var questions []domain.Question
	for rows.Next() {
		var question domain.Question
		var options []byte
		if err := rows.Scan(&question.ID, &question.OwnerID, &question.Title, &question.Description,
			&question.Type, &options, &question.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(options, &question.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

// --- Survey assembler methods ---

// CreateSurveyWithQuestions persists the survey in draft status together with its
// ordered join rows as one atomic unit.
func (r *PostgresRepository) CreateSurveyWithQuestions(ctx context.Context, survey *domain.Survey, questionIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO surveys (id, owner_id, title, description, audience_id, token_cost, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'draft')
		RETURNING status, created_at, updated_at`
	err = tx.QueryRow(ctx, query,
		survey.ID, survey.OwnerID, survey.Title, survey.Description,
		survey.AudienceID, survey.TokenCost).Scan(&survey.Status, &survey.CreatedAt, &survey.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err, "surveys_audience_id_fkey") {
			return ErrAudienceNotFound
		}
		return err
	}

	for i, questionID := range questionIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO survey_questions (survey_id, question_id, order_number)
			VALUES ($1, $2, $3)`,
			survey.ID, questionID, i+1)
		if err != nil {
			if isForeignKeyViolation(err, "survey_questions_question_id_fkey") {
				return ErrQuestionNotFound
			}
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	survey.QuestionIDs = append([]uuid.UUID(nil), questionIDs...)
	return nil
}

func (r *PostgresRepository) FindSurveyByID(ctx context.Context, surveyID uuid.UUID) (*domain.Survey, error) {
	var survey domain.Survey
	query := `
		SELECT id, owner_id, title, description, audience_id, token_cost, status, created_at, updated_at
		FROM surveys WHERE id = $1`
	err := r.db.QueryRow(ctx, query, surveyID).Scan(
		&survey.ID, &survey.OwnerID, &survey.Title, &survey.Description,
		&survey.AudienceID, &survey.TokenCost, &survey.Status, &survey.CreatedAt, &survey.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSurveyNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT question_id FROM survey_questions
		WHERE survey_id = $1
		ORDER BY order_number`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var questionID uuid.UUID
		if err := rows.Scan(&questionID); err != nil {
			return nil, err
		}
		survey.QuestionIDs = append(survey.QuestionIDs, questionID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *PostgresRepository) ListSurveysByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Survey, error) {
	query := `
		SELECT s.id, s.owner_id, s.title, s.description, s.audience_id, s.token_cost,
		       s.status, s.created_at, s.updated_at,
		       COALESCE(ARRAY_AGG(sq.question_id ORDER BY sq.order_number)
		                FILTER (WHERE sq.question_id IS NOT NULL), '{}') AS question_ids
		FROM surveys s
		LEFT JOIN survey_questions sq ON sq.survey_id = s.id
		WHERE s.owner_id = $1
		GROUP BY s.id
		ORDER BY s.created_at DESC`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var surveys []domain.Survey
	for rows.Next() {
		var survey domain.Survey
		if err := rows.Scan(&survey.ID, &survey.OwnerID, &survey.Title, &survey.Description,
			&survey.AudienceID, &survey.TokenCost, &survey.Status,
			&survey.CreatedAt, &survey.UpdatedAt, &survey.QuestionIDs); err != nil {
			return nil, err
		}
		surveys = append(surveys, survey)
	}
	return surveys, rows.Err()
}

// ActivateSurvey performs the owner-funded activation as one transaction: it
// re-validates draft status under a survey row lock, debits the owner's ledger
// under the balance row lock, and flips the status. On any failure the whole
// transaction rolls back, so no partial debit or partial activation is observable.
func (r *PostgresRepository) ActivateSurvey(ctx context.Context, surveyID uuid.UUID) (*domain.LedgerEntryResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var ownerID uuid.UUID
	var status string
	var tokenCost int64
	err = tx.QueryRow(ctx, `
		SELECT owner_id, status, token_cost FROM surveys WHERE id = $1 FOR UPDATE`,
		surveyID).Scan(&ownerID, &status, &tokenCost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSurveyNotFound
		}
		return nil, err
	}
	if status != domain.SurveyStatusDraft {
		return nil, ErrSurveyNotDraft
	}

	result, err := appendLedgerEntry(ctx, tx, ownerID, -tokenCost, domain.ReasonSurveyDebit, nil)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE surveys SET status = 'active', updated_at = NOW() WHERE id = $1`,
		surveyID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CloseSurvey(ctx context.Context, surveyID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM surveys WHERE id = $1 FOR UPDATE`, surveyID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSurveyNotFound
		}
		return err
	}
	if status != domain.SurveyStatusActive {
		return ErrSurveyNotActive
	}

	if _, err := tx.Exec(ctx, `
		UPDATE surveys SET status = 'closed', updated_at = NOW() WHERE id = $1`, surveyID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AddSurveyQuestion inserts at the requested position and shifts later rows up by
// one, keeping order_number contiguous. Positions past the end append.
func (r *PostgresRepository) AddSurveyQuestion(ctx context.Context, surveyID, questionID uuid.UUID, orderNumber int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM surveys WHERE id = $1 FOR UPDATE`, surveyID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSurveyNotFound
		}
		return err
	}
	if status != domain.SurveyStatusDraft {
		return ErrSurveyNotDraft
	}

	var count int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM survey_questions WHERE survey_id = $1`, surveyID).Scan(&count); err != nil {
		return err
	}
	if orderNumber < 1 || orderNumber > count+1 {
		orderNumber = count + 1
	}

	if _, err := tx.Exec(ctx, `
		UPDATE survey_questions SET order_number = order_number + 1
		WHERE survey_id = $1 AND order_number >= $2`, surveyID, orderNumber); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO survey_questions (survey_id, question_id, order_number)
		VALUES ($1, $2, $3)`, surveyID, questionID, orderNumber)
	if err != nil {
		if isUniqueViolation(err, "survey_questions_pkey") {
			return ErrQuestionInSurvey
		}
		if isForeignKeyViolation(err, "survey_questions_question_id_fkey") {
			return ErrQuestionNotFound
		}
		return err
	}
	return tx.Commit(ctx)
}

// RemoveSurveyQuestion deletes the row and closes the gap, so the remaining
// order_number values stay contiguous from 1.
func (r *PostgresRepository) RemoveSurveyQuestion(ctx context.Context, surveyID, questionID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM surveys WHERE id = $1 FOR UPDATE`, surveyID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSurveyNotFound
		}
		return err
	}
	if status != domain.SurveyStatusDraft {
		return ErrSurveyNotDraft
	}

	var removedOrder int
	err = tx.QueryRow(ctx, `
		DELETE FROM survey_questions
		WHERE survey_id = $1 AND question_id = $2
		RETURNING order_number`, surveyID, questionID).Scan(&removedOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuestionNotInSurvey
		}
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE survey_questions SET order_number = order_number - 1
		WHERE survey_id = $1 AND order_number > $2`, surveyID, removedOrder); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// --- Response methods ---

func (r *PostgresRepository) CreateResponse(ctx context.Context, response *domain.Response) error {
	query := `
		INSERT INTO responses (id, survey_id, question_id, member_id, answer_value)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	err := r.db.QueryRow(ctx, query,
		response.ID, response.SurveyID, response.QuestionID,
		response.MemberID, response.AnswerValue).Scan(&response.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "responses_survey_id_question_id_member_id_key") {
			return ErrDuplicateResponse
		}
		if isForeignKeyViolation(err, "responses_member_id_fkey") {
			return ErrMemberNotFound
		}
		if isForeignKeyViolation(err, "responses_question_id_fkey") {
			return ErrQuestionNotFound
		}
		if isForeignKeyViolation(err, "responses_survey_id_fkey") {
			return ErrSurveyNotFound
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) ListResponsesBySurvey(ctx context.Context, surveyID uuid.UUID) ([]domain.Response, error) {
	query := `
		SELECT id, survey_id, question_id, member_id, answer_value, created_at
		FROM responses
		WHERE survey_id = $1
		ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []domain.Response
	for rows.Next() {
		var response domain.Response
		if err := rows.Scan(&response.ID, &response.SurveyID, &response.QuestionID,
			&response.MemberID, &response.AnswerValue, &response.CreatedAt); err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, rows.Err()
}

// --- helpers ---

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}

func isForeignKeyViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503" && pgErr.ConstraintName == constraint
	}
	return false
}
