package attempt_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-assess/internal/attempt"
	"github.com/mind-engage/mindengage-assess/internal/db"
	"github.com/mind-engage/mindengage-assess/internal/exam"

	_ "modernc.org/sqlite"
)

// The full lifecycle against the SQL store, rule-based test included.
func TestLifecycleOverSQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	defer conn.Close()
	require.NoError(t, db.EnsureSchema(ctx, conn, db.DriverSQLite))

	st := exam.NewSQLStore(conn, string(db.DriverSQLite))
	for i, q := range []exam.Question{mcq("q1", 2), mcq("q2", 2), essay("e1", 6)} {
		q.TenantID = tenant
		q.Status = exam.QuestionPublished
		q.CreatedAt = now.Add(time.Duration(i) * time.Second)
		require.NoError(t, st.PutQuestion(ctx, q))
	}
	require.NoError(t, st.PutTest(ctx, exam.Test{
		ID: "RB", TenantID: tenant, Type: exam.TestRuleBased, Status: exam.TestPublished,
		Attempts: 2, PassingMarks: 5,
	}))
	require.NoError(t, st.PutRule(ctx, exam.Rule{
		ID: "objective", TestID: "RB", NumberOfQuestions: 2, Priority: 5, IsActive: true,
		SelectionMode: exam.ModeDynamic, SelectionStrategy: exam.SelectSequential,
		Criteria: exam.Criteria{Types: []exam.QuestionType{exam.QuestionMCQ}},
	}))
	require.NoError(t, st.PutRule(ctx, exam.Rule{
		ID: "written", TestID: "RB", NumberOfQuestions: 1, Priority: 1, IsActive: true,
		SelectionMode: exam.ModePreselected, QuestionIDs: []string{"e1"},
	}))

	rec := &recorder{}
	svc := attempt.NewService(st, attempt.WithNotifier(rec), attempt.WithClock(func() time.Time { return now }))

	a, err := svc.Start(ctx, student, "RB")
	require.NoError(t, err)
	links, err := st.ListTestQuestions(ctx, a.ResolvedTestID)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "e1", links[2].QuestionID)
	assert.Equal(t, "written", links[2].RuleID)

	_, err = svc.SubmitAnswers(ctx, student, a.ID, []attempt.AnswerInput{
		{QuestionID: "q1", Answer: pick("q1-a"), TimeSpentSec: 20},
		{QuestionID: "q2", Answer: pick("q2-a"), TimeSpentSec: 20},
		{QuestionID: "e1", Answer: text("an argument"), TimeSpentSec: 100},
	})
	require.NoError(t, err)

	out, err := svc.SubmitAttempt(ctx, student, a.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.ReviewPending, out.ReviewStatus)
	assert.Equal(t, 4.0, out.Score)

	out, err = svc.ReviewAttempt(ctx, teacher, a.ID, []attempt.ReviewInput{{QuestionID: "e1", Score: 3}}, "ok")
	require.NoError(t, err)
	assert.Equal(t, 7.0, out.Score)
	assert.Equal(t, exam.ResultPass, *out.Result)

	res, err := svc.Result(ctx, student, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.MaxScore)
	assert.Len(t, res.Questions, 3)

	st2, err := svc.UserTestStatus(ctx, student, "RB", "")
	require.NoError(t, err)
	require.NotNil(t, st2.GradedAttempt)
	assert.Equal(t, a.ID, *st2.GradedAttempt.AttemptID)
	assert.True(t, st2.CanAttempt)

	assert.Equal(t, []string{
		attempt.EventAttemptStarted,
		attempt.EventAnswerSubmitted, attempt.EventAnswerSubmitted, attempt.EventAnswerSubmitted,
		attempt.EventAttemptSubmitted, attempt.EventAttemptReviewed,
	}, rec.names())
}
