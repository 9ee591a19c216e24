package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-assess/internal/attempt"
	auth "github.com/mind-engage/mindengage-assess/internal/auth/middleware"
	"github.com/mind-engage/mindengage-assess/internal/exam"
)

type answerReq struct {
	QuestionID   string          `json:"question_id" validate:"required"`
	Answer       json.RawMessage `json:"answer" validate:"required"`
	TimeSpentSec int             `json:"time_spent_sec" validate:"gte=0"`
}

type submitAnswersReq struct {
	Answers []answerReq `json:"answers" validate:"required,min=1,dive"`
}

// POST /tests/{testID}/attempts
func StartAttemptHandler(svc Attempts, log logrus.FieldLogger) http.HandlerFunc {
	return withActor(func(w http.ResponseWriter, r *http.Request, actor exam.Actor) {
		testID := strings.TrimSpace(chi.URLParam(r, "testID"))
		a, err := svc.Start(r.Context(), actor, testID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	})
}

// POST /attempts/{attemptID}/answers  {"answers":[{"question_id":"..","answer":{..},"time_spent_sec":30}]}
func SubmitAnswersHandler(svc Attempts, log logrus.FieldLogger) http.HandlerFunc {
	return withActor(func(w http.ResponseWriter, r *http.Request, actor exam.Actor) {
		var req submitAnswersReq
		if !decodeBody(w, r, &req) {
			return
		}
		in := make([]attempt.AnswerInput, len(req.Answers))
		for i, a := range req.Answers {
			in[i] = attempt.AnswerInput{QuestionID: a.QuestionID, Answer: a.Answer, TimeSpentSec: a.TimeSpentSec}
		}
		saved, err := svc.SubmitAnswers(r.Context(), actor, chi.URLParam(r, "attemptID"), in)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"answers": saved})
	})
}

// POST /attempts/{attemptID}/submit
func SubmitAttemptHandler(svc Attempts, log logrus.FieldLogger) http.HandlerFunc {
	return withActor(func(w http.ResponseWriter, r *http.Request, actor exam.Actor) {
		out, err := svc.SubmitAttempt(r.Context(), actor, chi.URLParam(r, "attemptID"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})
}

// GET /attempts/{attemptID}/result
func AttemptResultHandler(svc Attempts, log logrus.FieldLogger) http.HandlerFunc {
	return withActor(func(w http.ResponseWriter, r *http.Request, actor exam.Actor) {
		b, err := svc.Result(r.Context(), actor, chi.URLParam(r, "attemptID"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	})
}

// withActor resolves the caller set by the JWT middleware.
func withActor(h func(http.ResponseWriter, *http.Request, exam.Actor)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h(w, r, actor)
	}
}
