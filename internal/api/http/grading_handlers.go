package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-assess/internal/attempt"
	"github.com/mind-engage/mindengage-assess/internal/exam"
)

type reviewItemReq struct {
	QuestionID string   `json:"question_id" validate:"required"`
	Score      *float64 `json:"score" validate:"required"`
	Remarks    string   `json:"remarks" validate:"max=4000"`
}

type reviewReq struct {
	Reviews []reviewItemReq `json:"reviews" validate:"required,min=1,dive"`
	Remarks string          `json:"remarks" validate:"max=4000"`
}

// POST /attempts/{attemptID}/review
func ReviewAttemptHandler(svc Attempts, log logrus.FieldLogger) http.HandlerFunc {
	return withActor(func(w http.ResponseWriter, r *http.Request, actor exam.Actor) {
		var req reviewReq
		if !decodeBody(w, r, &req) {
			return
		}
		in := make([]attempt.ReviewInput, len(req.Reviews))
		for i, rv := range req.Reviews {
			in[i] = attempt.ReviewInput{QuestionID: rv.QuestionID, Score: *rv.Score, Remarks: rv.Remarks}
		}
		out, err := svc.ReviewAttempt(r.Context(), actor, chi.URLParam(r, "attemptID"), in, req.Remarks)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})
}
