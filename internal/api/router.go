/**
 * @description
 * This file sets up the HTTP router for the survey service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * the middleware stack: logging, panic recovery, timeouts, metrics, bearer
 * authentication for owner routes, API-key authentication for the collector
 * route, and Redis-backed rate limits on login and token purchase.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pollcraft/survey-service/internal/app"
	"github.com/pollcraft/survey-service/internal/metrics"
)

// RouterConfig carries the router's security and throttling settings.
type RouterConfig struct {
	JWTSecret               []byte
	CollectorAPIKey         string
	Limiter                 app.RateLimiter
	LoginRateLimitPerMinute int
	PurchaseRateLimitPerMin int
}

// Routes creates and returns the router for the survey service.
func Routes(h *Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metrics.Middleware)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Public authentication endpoints. Login is throttled per client address.
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.SignupHandler)
		r.With(RateLimitMiddleware(cfg.Limiter, "login", cfg.LoginRateLimitPerMinute)).
			Post("/login", h.LoginHandler)
	})

	// Collector route for panel response ingestion, guarded by a static key.
	r.Group(func(r chi.Router) {
		r.Use(APIKeyMiddleware(cfg.CollectorAPIKey))
		r.Post("/surveys/{surveyID}/responses", h.SubmitResponseHandler)
	})

	// Group routes that require bearer authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))

		r.Route("/tokens", func(r chi.Router) {
			r.With(RateLimitMiddleware(cfg.Limiter, "purchase", cfg.PurchaseRateLimitPerMin)).
				Post("/purchase", h.PurchaseTokensHandler)
			r.Get("/balance", h.GetBalanceHandler)
			r.Get("/history", h.ListTransactionsHandler)
		})

		r.Route("/audiences", func(r chi.Router) {
			r.Post("/", h.CreateAudienceHandler)
			r.Get("/", h.ListAudiencesHandler)
			r.Get("/{audienceID}/members", h.ListAudienceMembersHandler)
		})

		r.Route("/questions", func(r chi.Router) {
			r.Post("/", h.CreateQuestionHandler)
			r.Get("/", h.ListQuestionsHandler)
		})

		r.Route("/surveys", func(r chi.Router) {
			r.Post("/", h.CreateSurveyHandler)
			r.Get("/", h.ListSurveysHandler)
			r.Get("/{surveyID}", h.GetSurveyHandler)
			r.Post("/{surveyID}/activate", h.ActivateSurveyHandler)
			r.Post("/{surveyID}/close", h.CloseSurveyHandler)
			r.Post("/{surveyID}/questions", h.AddSurveyQuestionHandler)
			r.Delete("/{surveyID}/questions/{questionID}", h.RemoveSurveyQuestionHandler)
			r.Get("/{surveyID}/results", h.GetSurveyResultsHandler)
		})
	})

	return r
}
