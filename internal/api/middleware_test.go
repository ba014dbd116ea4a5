package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pollcraft/survey-service/internal/app"
)

func decodeErrorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Error.Kind
}

func TestAuthMiddleware_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	userID := uuid.New()

	token, err := NewTokenSigner(secret)(userID, "a@b.com", time.Hour)
	if err != nil {
		t.Fatalf("token signing failed: %v", err)
	}

	var gotUserID uuid.UUID
	handler := AuthMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserID(r.Context())
		if !ok {
			t.Fatal("expected user id in context")
		}
		gotUserID = id
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/tokens/balance", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUserID != userID {
		t.Fatalf("expected user id %s from token, got %s", userID, gotUserID)
	}
}

func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	secret := []byte("test-secret")
	otherSecret := []byte("other-secret")
	forged, err := NewTokenSigner(otherSecret)(uuid.New(), "a@b.com", time.Hour)
	if err != nil {
		t.Fatalf("token signing failed: %v", err)
	}
	expired, err := NewTokenSigner(secret)(uuid.New(), "a@b.com", -time.Hour)
	if err != nil {
		t.Fatalf("token signing failed: %v", err)
	}

	handler := AuthMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for rejected tokens")
	}))

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"wrong key", "Bearer " + forged},
		{"expired", "Bearer " + expired},
		{"garbage", "Bearer not.a.token"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/tokens/balance", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", tc.name, rec.Code)
		}
		if kind := decodeErrorKind(t, rec); kind != kindUnauthorized {
			t.Fatalf("%s: expected unauthorized kind, got %q", tc.name, kind)
		}
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	handler := APIKeyMiddleware("collector-key")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/surveys/x/responses", nil)
	req.Header.Set("X-API-Key", "collector-key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected valid key to pass, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/surveys/x/responses", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected invalid key to be rejected, got %d", rec.Code)
	}

	disabled := APIKeyMiddleware("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run when collection is disabled")
	}))
	req = httptest.NewRequest(http.MethodPost, "/surveys/x/responses", nil)
	rec = httptest.NewRecorder()
	disabled.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when no key is configured, got %d", rec.Code)
	}
}

type limiterStub struct {
	count      int
	retryAfter int
	err        error
}

func (l *limiterStub) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	if l.err != nil {
		return 0, 0, l.err
	}
	l.count++
	return l.count, l.retryAfter, nil
}

func TestRateLimitMiddleware_ThrottlesBeyondLimit(t *testing.T) {
	limiter := &limiterStub{retryAfter: 42}
	handler := RateLimitMiddleware(limiter, "login", 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 within the limit, got %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 beyond the limit, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("expected Retry-After 42, got %q", got)
	}
	if kind := decodeErrorKind(t, rec); kind != kindRateLimited {
		t.Fatalf("expected rate_limited kind, got %q", kind)
	}
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	limiter := &limiterStub{err: context.DeadlineExceeded}
	handler := RateLimitMiddleware(limiter, "login", 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected redis failure to fail open, got %d", rec.Code)
	}
}

func TestWriteServiceError_KindToStatusMapping(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantKind   string
	}{
		{app.NewValidationError("bad"), http.StatusBadRequest, string(app.KindValidation)},
		{app.NewUnauthorizedError("nope"), http.StatusUnauthorized, string(app.KindUnauthorized)},
		{app.NewInsufficientTokensError("broke"), http.StatusPaymentRequired, string(app.KindInsufficientTokens)},
		{app.NewNotFoundError("gone"), http.StatusNotFound, string(app.KindNotFound)},
		{app.NewConflictError("again"), http.StatusConflict, string(app.KindConflict)},
		{app.NewIntegrityError("drift"), http.StatusInternalServerError, string(app.KindIntegrity)},
		{context.DeadlineExceeded, http.StatusInternalServerError, kindInternal},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, "test", tc.err)
		if rec.Code != tc.wantStatus {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.wantStatus, rec.Code)
		}
		if kind := decodeErrorKind(t, rec); kind != tc.wantKind {
			t.Fatalf("%v: expected kind %q, got %q", tc.err, tc.wantKind, kind)
		}
	}
}
