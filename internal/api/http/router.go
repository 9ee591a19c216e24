package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-assess/internal/attempt"
	guest "github.com/mind-engage/mindengage-assess/internal/auth"
	auth "github.com/mind-engage/mindengage-assess/internal/auth/middleware"
	"github.com/mind-engage/mindengage-assess/internal/exam"
	"github.com/mind-engage/mindengage-assess/internal/grades"
	"github.com/mind-engage/mindengage-assess/internal/rbac"
)

// Attempts is the attempt lifecycle as the handlers use it; *attempt.Service
// satisfies it.
type Attempts interface {
	Start(ctx context.Context, actor exam.Actor, testID string) (exam.Attempt, error)
	SubmitAnswers(ctx context.Context, actor exam.Actor, attemptID string, in []attempt.AnswerInput) ([]exam.UserAnswer, error)
	SubmitAttempt(ctx context.Context, actor exam.Actor, attemptID string) (attempt.Outcome, error)
	ReviewAttempt(ctx context.Context, actor exam.Actor, attemptID string, reviews []attempt.ReviewInput, overallRemarks string) (attempt.Outcome, error)
	Result(ctx context.Context, actor exam.Actor, attemptID string) (attempt.Breakdown, error)
	UserTestStatus(ctx context.Context, actor exam.Actor, testID, userID string) (grades.UserTestStatus, error)
	ListAttempts(ctx context.Context, actor exam.Actor, testID, userID string) ([]exam.Attempt, error)
}

type Deps struct {
	Attempts    Attempts
	Events      EventSource // optional
	Auth        *auth.AuthService
	Admin       *auth.Admin // nil disables local login
	GuestTenant string      // empty disables guest login
	Ready       func(ctx context.Context) error
	CORSOrigins []string
	Log         logrus.FieldLogger
}

func NewRouter(d Deps) chi.Router {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.Admin != nil {
		r.Post("/auth/login", auth.LoginHandler(d.Auth, *d.Admin))
	}
	if d.GuestTenant != "" {
		r.Post("/auth/guest", guest.GuestLoginHandler(d.Auth, d.GuestTenant))
	}

	// JWT → actor and role in context → RBAC
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.Require("attempt:create")).
			Post("/tests/{testID}/attempts", StartAttemptHandler(d.Attempts, d.Log))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/tests/{testID}/attempts", ListAttemptsHandler(d.Attempts, d.Log))
		pr.With(rbac.Require("test:view")).
			Get("/tests/{testID}/status", UserTestStatusHandler(d.Attempts, d.Log))

		pr.With(rbac.Require("attempt:save")).
			Post("/attempts/{attemptID}/answers", SubmitAnswersHandler(d.Attempts, d.Log))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", SubmitAttemptHandler(d.Attempts, d.Log))
		pr.With(rbac.Require("attempt:review")).
			Post("/attempts/{attemptID}/review", ReviewAttemptHandler(d.Attempts, d.Log))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}/result", AttemptResultHandler(d.Attempts, d.Log))

		if d.Events != nil {
			pr.With(rbac.Require("events:read")).
				Get("/events", ListEventsHandler(d.Events, d.Log))
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				d.Log.WithError(err).Warn("not ready")
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"request_id": middleware.GetReqID(r.Context()),
				"elapsed_ms": time.Since(start).Milliseconds(),
			}).Debug("http request")
		})
	}
}
