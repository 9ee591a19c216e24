package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

// GET /tests/{testID}/attempts?user_id=...
// Without user_id the caller's own attempts are listed; other users need
// reviewer rights, enforced by the service.
func ListAttemptsHandler(svc Attempts, log logrus.FieldLogger) http.HandlerFunc {
	return withActor(func(w http.ResponseWriter, r *http.Request, actor exam.Actor) {
		testID := strings.TrimSpace(chi.URLParam(r, "testID"))
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		list, err := svc.ListAttempts(r.Context(), actor, testID, userID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		if list == nil {
			list = []exam.Attempt{}
		}
		writeJSON(w, http.StatusOK, list)
	})
}

// GET /tests/{testID}/status?user_id=...
func UserTestStatusHandler(svc Attempts, log logrus.FieldLogger) http.HandlerFunc {
	return withActor(func(w http.ResponseWriter, r *http.Request, actor exam.Actor) {
		testID := strings.TrimSpace(chi.URLParam(r, "testID"))
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		st, err := svc.UserTestStatus(r.Context(), actor, testID, userID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	})
}
