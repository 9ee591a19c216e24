package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-assess/internal/exam"
	syncx "github.com/mind-engage/mindengage-assess/internal/sync"
)

type EventSource interface {
	Since(ctx context.Context, tenantID string, after int64, limit int) ([]syncx.Event, error)
}

// GET /events?after=0&limit=100
// Pages the caller's tenant event log in seq order.
func ListEventsHandler(src EventSource, log logrus.FieldLogger) http.HandlerFunc {
	return withActor(func(w http.ResponseWriter, r *http.Request, actor exam.Actor) {
		after, err := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		if err != nil || after < 0 {
			after = 0
		}
		limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
		list, err := src.Since(r.Context(), actor.TenantID, after, limit)
		if err != nil {
			writeError(w, log, err)
			return
		}
		next := after
		if n := len(list); n > 0 {
			next = list[n-1].Seq
		}
		if list == nil {
			list = []syncx.Event{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": list, "next_after": next})
	})
}
