package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-assess/internal/attempt"
)

// Event is one row of the append-only event_log table. Seq orders events
// per site; consumers page with Since.
type Event struct {
	Seq       int64  `json:"seq"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	TenantID  string `json:"tenant_id"`
	OrgID     string `json:"org_id,omitempty"`
	UserID    string `json:"user_id"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type EventRepo struct {
	db     *sql.DB
	siteID string
}

func NewEventRepo(db *sql.DB, siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: db, siteID: siteID}
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = r.siteID
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, tenant_id, org_id, user_id, data, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.SiteID, e.Type, e.Key, e.TenantID, e.OrgID, e.UserID, e.DataJSON, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append event %s: %w", e.Type, err)
	}
	return nil
}

// Since returns up to limit events of tenantID with seq > after.
func (r *EventRepo) Since(ctx context.Context, tenantID string, after int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, tenant_id, org_id, user_id, data, created_at
		   FROM event_log WHERE tenant_id = $1 AND seq > $2 ORDER BY seq LIMIT $3`,
		tenantID, after, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.TenantID, &e.OrgID, &e.UserID, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Notify records a lifecycle event, so EventRepo can be handed to
// attempt.WithNotifier.
func (r *EventRepo) Notify(ctx context.Context, e attempt.Event) error {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", e.Name, err)
	}
	return r.Append(ctx, Event{
		Type:      e.Name,
		Key:       e.AttemptID,
		TenantID:  e.TenantID,
		OrgID:     e.OrgID,
		UserID:    e.UserID,
		DataJSON:  string(data),
		CreatedAt: e.At.Unix(),
	})
}
