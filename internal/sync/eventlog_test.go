package syncx_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-assess/internal/attempt"
	"github.com/mind-engage/mindengage-assess/internal/db"
	syncx "github.com/mind-engage/mindengage-assess/internal/sync"

	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.EnsureSchema(context.Background(), conn, db.DriverSQLite))
	return conn
}

func TestEventRepo_NotifyAndSince(t *testing.T) {
	ctx := context.Background()
	repo := syncx.NewEventRepo(openSQLite(t), "site-a")
	at := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)

	for _, name := range []string{attempt.EventAttemptStarted, attempt.EventAttemptSubmitted} {
		require.NoError(t, repo.Notify(ctx, attempt.Event{
			Name: name, TenantID: "t1", UserID: "u1", AttemptID: "a1",
			Payload: map[string]any{"score": 3.5}, At: at,
		}))
	}
	require.NoError(t, repo.Notify(ctx, attempt.Event{Name: attempt.EventAttemptStarted, TenantID: "t2", AttemptID: "a9", At: at}))

	evs, err := repo.Since(ctx, "t1", 0, 10)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, attempt.EventAttemptStarted, evs[0].Type)
	assert.Equal(t, "a1", evs[0].Key)
	assert.Equal(t, "site-a", evs[0].SiteID)
	assert.JSONEq(t, `{"score":3.5}`, evs[0].DataJSON)
	assert.Equal(t, at.Unix(), evs[0].CreatedAt)

	rest, err := repo.Since(ctx, "t1", evs[0].Seq, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, attempt.EventAttemptSubmitted, rest[0].Type)
}

func TestEventRepo_AppendError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec("INSERT INTO event_log").WillReturnError(errors.New("disk full"))

	err = syncx.NewEventRepo(conn, "").Append(context.Background(), syncx.Event{Type: "attempt.started", Key: "a1", DataJSON: "{}"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}
