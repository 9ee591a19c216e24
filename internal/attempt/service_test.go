package attempt_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-assess/internal/attempt"
	"github.com/mind-engage/mindengage-assess/internal/exam"
)

const tenant = "t1"

var (
	now     = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
	student = exam.Actor{UserID: "u1", TenantID: tenant, Role: "student"}
	other   = exam.Actor{UserID: "u2", TenantID: tenant, Role: "student"}
	teacher = exam.Actor{UserID: "t9", TenantID: tenant, Role: "teacher"}
)

type recorder struct {
	mu     sync.Mutex
	events []attempt.Event
	err    error
}

func (r *recorder) Notify(_ context.Context, e attempt.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

type fixture struct {
	store *exam.MemoryStore
	svc   *attempt.Service
	rec   *recorder
	hook  *logtest.Hook
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	st := exam.NewMemoryStore()
	rec := &recorder{}
	svc := attempt.NewService(st,
		attempt.WithNotifier(rec),
		attempt.WithLogger(logger),
		attempt.WithClock(func() time.Time { return now }),
		attempt.WithIDs(sequentialIDs()),
	)
	return &fixture{store: st, svc: svc, rec: rec, hook: hook}
}

func (f *fixture) put(t *testing.T, qs ...exam.Question) {
	t.Helper()
	for _, q := range qs {
		q.TenantID = tenant
		q.Status = exam.QuestionPublished
		require.NoError(t, f.store.PutQuestion(context.Background(), q))
	}
}

// plainTest links the given question ids in order.
func (f *fixture) plainTest(t *testing.T, test exam.Test, ids ...string) exam.Test {
	t.Helper()
	ctx := context.Background()
	test.TenantID = tenant
	if test.Type == "" {
		test.Type = exam.TestPlain
	}
	if test.Status == "" {
		test.Status = exam.TestPublished
	}
	require.NoError(t, f.store.PutTest(ctx, test))
	links := make([]exam.TestQuestion, len(ids))
	for i, id := range ids {
		links[i] = exam.TestQuestion{TestID: test.ID, QuestionID: id, Ordering: i + 1}
	}
	if len(links) > 0 {
		require.NoError(t, f.store.AddTestQuestions(ctx, links))
	}
	return test
}

func mcq(id string, marks float64) exam.Question {
	return exam.Question{ID: id, Type: exam.QuestionMCQ, Marks: marks, Options: []exam.Option{
		{ID: id + "-a", IsCorrect: true}, {ID: id + "-b"},
	}}
}

func essay(id string, marks float64) exam.Question {
	return exam.Question{ID: id, Type: exam.QuestionEssay, Marks: marks}
}

func pick(opt string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"selectedOptionIds":[%q]}`, opt))
}

func text(s string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"text":%q}`, s))
}

func TestStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 2))
	f.plainTest(t, exam.Test{ID: "T", Attempts: 3, PassingMarks: 1}, "q1")

	a, err := f.svc.Start(ctx, student, "T")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Seq)
	assert.Equal(t, exam.AttemptInProgress, a.Status)
	assert.Equal(t, "u1", a.UserID)
	assert.Equal(t, now, a.StartedAt)
	assert.Equal(t, []string{attempt.EventAttemptStarted}, f.rec.names())
	assert.Equal(t, tenant, f.rec.events[0].TenantID)

	stored, err := f.store.GetAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, stored)
}

func TestStart_MaxAttemptsReached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 2))
	f.plainTest(t, exam.Test{ID: "T", Attempts: 3}, "q1")

	for i := 1; i <= 3; i++ {
		a, err := f.svc.Start(ctx, student, "T")
		require.NoError(t, err)
		assert.Equal(t, i, a.Seq)
	}
	_, err := f.svc.Start(ctx, student, "T")
	require.ErrorIs(t, err, exam.ErrMaxAttemptsReached)
	assert.ErrorIs(t, err, exam.ErrInvalidState)

	// other learners have their own count
	_, err = f.svc.Start(ctx, other, "T")
	assert.NoError(t, err)
}

func TestStart_SingleSubmissionAndUnlimited(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 2))
	f.plainTest(t, exam.Test{ID: "single", Attempts: 0, SingleSubmission: true}, "q1")
	f.plainTest(t, exam.Test{ID: "open", Attempts: 0}, "q1")

	_, err := f.svc.Start(ctx, student, "single")
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, student, "single")
	assert.ErrorIs(t, err, exam.ErrMaxAttemptsReached)

	for i := 0; i < 5; i++ {
		_, err := f.svc.Start(ctx, student, "open")
		require.NoError(t, err)
	}
}

func TestStart_NotAvailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 2))
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)
	f.plainTest(t, exam.Test{ID: "draft", Status: exam.TestDraft}, "q1")
	f.plainTest(t, exam.Test{ID: "future", StartDate: &later}, "q1")
	f.plainTest(t, exam.Test{ID: "past", EndDate: &earlier}, "q1")
	f.plainTest(t, exam.Test{ID: "gen", Type: exam.TestGenerated}, "q1")

	for _, id := range []string{"draft", "future", "past", "gen"} {
		_, err := f.svc.Start(ctx, student, id)
		assert.ErrorIs(t, err, exam.ErrTestNotAvailable, id)
	}

	_, err := f.svc.Start(ctx, student, "missing")
	assert.ErrorIs(t, err, exam.ErrNotFound)

	foreign := exam.Actor{UserID: "u1", TenantID: "t2"}
	_, err = f.svc.Start(ctx, foreign, "draft")
	assert.ErrorIs(t, err, exam.ErrNotFound)
}

func TestStart_ConfigurationError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	broken := exam.Question{ID: "bad", Type: exam.QuestionMultipleAnswer, Marks: 3, Options: []exam.Option{{ID: "x"}}}
	f.put(t, mcq("q1", 2), broken, essay("e1", 5))
	f.plainTest(t, exam.Test{ID: "T", Attempts: 1}, "q1", "bad", "e1")

	_, err := f.svc.Start(ctx, student, "T")
	require.ErrorIs(t, err, exam.ErrConfiguration)
	var ce *exam.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"bad"}, ce.QuestionIDs)

	atts, err := f.store.ListAttempts(ctx, "T", "u1")
	require.NoError(t, err)
	assert.Empty(t, atts)
	assert.Empty(t, f.rec.names())
}

func TestStart_RuleBased(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 1), mcq("q2", 1), mcq("q3", 1))
	f.plainTest(t, exam.Test{ID: "RB", Type: exam.TestRuleBased, Attempts: 2, PassingMarks: 1, IsObjective: true})
	require.NoError(t, f.store.PutRule(ctx, exam.Rule{
		ID: "r1", TestID: "RB", NumberOfQuestions: 2, IsActive: true,
		SelectionMode: exam.ModeDynamic, SelectionStrategy: exam.SelectSequential,
	}))

	a, err := f.svc.Start(ctx, student, "RB")
	require.NoError(t, err)
	require.NotEmpty(t, a.ResolvedTestID)
	assert.Equal(t, "RB", a.TestID)

	gen, err := f.store.GetTest(ctx, a.ResolvedTestID)
	require.NoError(t, err)
	assert.Equal(t, exam.TestGenerated, gen.Type)
	assert.Equal(t, "RB", gen.ParentTestID)

	_, err = f.svc.SubmitAnswers(ctx, student, a.ID, []attempt.AnswerInput{{QuestionID: "q2", Answer: pick("q2-a")}})
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswers(ctx, student, a.ID, []attempt.AnswerInput{{QuestionID: "q3", Answer: pick("q3-a")}})
	assert.ErrorIs(t, err, exam.ErrNotFound)

	out, err := f.svc.SubmitAttempt(ctx, student, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Score)
	require.NotNil(t, out.Result)
	assert.Equal(t, exam.ResultPass, *out.Result)
}

func TestStart_RuleBasedInsufficient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 1), mcq("q2", 1), mcq("q3", 1))
	f.plainTest(t, exam.Test{ID: "RB", Type: exam.TestRuleBased, Attempts: 2})
	require.NoError(t, f.store.PutRule(ctx, exam.Rule{
		ID: "r1", TestID: "RB", NumberOfQuestions: 5, IsActive: true,
		SelectionMode: exam.ModeDynamic, SelectionStrategy: exam.SelectRandom,
	}))

	_, err := f.svc.Start(ctx, student, "RB")
	require.ErrorIs(t, err, exam.ErrInsufficientQuestions)

	// id-1 went to the attempt, id-2 to the generated test
	_, err = f.store.GetTest(ctx, "id-2")
	assert.ErrorIs(t, err, exam.ErrNotFound)
	atts, err := f.store.ListAttempts(ctx, "RB", "u1")
	require.NoError(t, err)
	assert.Empty(t, atts)
}

func TestSubmitAnswers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 2), mcq("q2", 3), essay("e1", 5))
	f.plainTest(t, exam.Test{ID: "T"}, "q1", "q2", "e1")
	a, err := f.svc.Start(ctx, student, "T")
	require.NoError(t, err)

	saved, err := f.svc.SubmitAnswers(ctx, student, a.ID, []attempt.AnswerInput{
		{QuestionID: "q1", Answer: pick("q1-b"), TimeSpentSec: 10},
		{QuestionID: "e1", Answer: text("my essay"), TimeSpentSec: 30},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	require.NotNil(t, saved[0].Score)
	assert.Equal(t, 0.0, *saved[0].Score)
	assert.Equal(t, exam.ReviewNotApplicable, saved[0].ReviewStatus)
	assert.Nil(t, saved[1].Score)
	assert.Equal(t, exam.ReviewPending, saved[1].ReviewStatus)

	got, err := f.store.GetAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentPosition)
	assert.Equal(t, 40, got.TimeSpentSec)

	// resubmitting the same question keeps one row with the latest payload
	_, err = f.svc.SubmitAnswers(ctx, student, a.ID, []attempt.AnswerInput{{QuestionID: "q1", Answer: pick("q1-a"), TimeSpentSec: 5}})
	require.NoError(t, err)
	answers, err := f.store.ListAnswers(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	q1 := answers[1]
	require.Equal(t, "q1", q1.QuestionID)
	assert.JSONEq(t, `{"selectedOptionIds":["q1-a"]}`, string(q1.Payload))
	assert.Equal(t, 2.0, *q1.Score)
	assert.Equal(t, 15, q1.TimeSpentSec)

	got, err = f.store.GetAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentPosition)
	assert.Equal(t, 45, got.TimeSpentSec)

	events := f.rec.names()
	assert.Equal(t, []string{
		attempt.EventAttemptStarted, attempt.EventAnswerSubmitted, attempt.EventAnswerSubmitted, attempt.EventAnswerSubmitted,
	}, events)
	assert.Equal(t, 2.0, f.rec.events[3].Payload["score"])
}

func TestSubmitAnswers_RejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 2), mcq("q2", 3))
	f.plainTest(t, exam.Test{ID: "T"}, "q1", "q2")
	a, err := f.svc.Start(ctx, student, "T")
	require.NoError(t, err)

	_, err = f.svc.SubmitAnswers(ctx, student, a.ID, []attempt.AnswerInput{
		{QuestionID: "q1", Answer: pick("q1-a")},
		{QuestionID: "q2", Answer: json.RawMessage(`{"selectedOptionIds":[]}`)},
	})
	require.ErrorIs(t, err, exam.ErrValidation)
	var ve *exam.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "q2", ve.QuestionID)

	answers, err := f.store.ListAnswers(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, answers)

	_, err = f.svc.SubmitAnswers(ctx, student, a.ID, []attempt.AnswerInput{{QuestionID: "nope", Answer: pick("x")}})
	assert.ErrorIs(t, err, exam.ErrNotFound)

	_, err = f.svc.SubmitAnswers(ctx, other, a.ID, []attempt.AnswerInput{{QuestionID: "q1", Answer: pick("q1-a")}})
	assert.ErrorIs(t, err, exam.ErrNotFound)

	_, err = f.svc.SubmitAnswers(ctx, student, a.ID, nil)
	assert.ErrorIs(t, err, exam.ErrValidation)
}

func TestSubmitAnswers_ConcurrentRetriesKeepOneRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 2))
	f.plainTest(t, exam.Test{ID: "T"}, "q1")
	a, err := f.svc.Start(ctx, student, "T")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SubmitAnswers(ctx, student, a.ID, []attempt.AnswerInput{{QuestionID: "q1", Answer: pick("q1-a"), TimeSpentSec: 1}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	answers, err := f.store.ListAnswers(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 1)
	got, err := f.store.GetAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.TimeSpentSec)
}

func TestSubmitAttempt_Objective(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 2), mcq("q2", 3))
	f.plainTest(t, exam.Test{ID: "T", IsObjective: true, PassingMarks: 3}, "q1", "q2")
	a, err := f.svc.Start(ctx, student, "T")
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswers(ctx, student, a.ID, []attempt.AnswerInput{
		{QuestionID: "q1", Answer: pick("q1-a")},
		{QuestionID: "q2", Answer: pick("q2-b")},
	})
	require.NoError(t, err)

	out, err := f.svc.SubmitAttempt(ctx, student, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, out.Score)
	require.NotNil(t, out.Result)
	assert.Equal(t, exam.ResultFail, *out.Result)
	assert.Equal(t, exam.ReviewNotApplicable, out.ReviewStatus)

	got, err := f.store.GetAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.AttemptSubmitted, got.Status)
	require.NotNil(t, got.SubmittedAt)

	_, err = f.svc.SubmitAttempt(ctx, student, a.ID)
	require.ErrorIs(t, err, exam.ErrAlreadySubmitted)
	again, err := f.store.GetAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Score, again.Score)

	_, err = f.svc.SubmitAnswers(ctx, student, a.ID, []attempt.AnswerInput{{QuestionID: "q2", Answer: pick("q2-a")}})
	assert.ErrorIs(t, err, exam.ErrInvalidState)

	res, err := f.svc.Result(ctx, student, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.MaxScore)
	require.Len(t, res.Questions, 2)
	assert.Equal(t, 2.0, res.Questions[0].Score)
	assert.Equal(t, 0.0, res.Questions[1].Score)
}

func TestSubmitAttempt_ObjectiveTestClosesSubjectiveAnswers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 2), essay("e1", 5))
	f.plainTest(t, exam.Test{ID: "T", IsObjective: true, PassingMarks: 2}, "q1", "e1")
	a, err := f.svc.Start(ctx, student, "T")
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswers(ctx, student, a.ID, []attempt.AnswerInput{
		{QuestionID: "q1", Answer: pick("q1-a")},
		{QuestionID: "e1", Answer: text("words")},
	})
	require.NoError(t, err)

	out, err := f.svc.SubmitAttempt(ctx, student, a.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.ReviewNotApplicable, out.ReviewStatus)
	assert.Equal(t, exam.ResultPass, *out.Result)

	answers, err := f.store.ListAnswers(ctx, a.ID)
	require.NoError(t, err)
	for _, ua := range answers {
		require.NotNil(t, ua.Score)
		assert.Equal(t, exam.ReviewNotApplicable, ua.ReviewStatus)
	}
}

func TestSubmitAttempt_NonObjectiveWithoutSubjectiveAnswers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 2), essay("e1", 5))
	f.plainTest(t, exam.Test{ID: "T", IsObjective: false, PassingMarks: 2}, "q1", "e1")
	a, err := f.svc.Start(ctx, student, "T")
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswers(ctx, student, a.ID, []attempt.AnswerInput{{QuestionID: "q1", Answer: pick("q1-a")}})
	require.NoError(t, err)

	out, err := f.svc.SubmitAttempt(ctx, student, a.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.ReviewNotApplicable, out.ReviewStatus)
	require.NotNil(t, out.Result)
	assert.Equal(t, exam.ResultPass, *out.Result)
}

func TestReviewAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 2), essay("e1", 5), essay("e2", 4))
	f.plainTest(t, exam.Test{ID: "T", PassingMarks: 8}, "q1", "e1", "e2")
	a, err := f.svc.Start(ctx, student, "T")
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswers(ctx, student, a.ID, []attempt.AnswerInput{
		{QuestionID: "q1", Answer: pick("q1-a")},
		{QuestionID: "e1", Answer: text("first")},
		{QuestionID: "e2", Answer: text("second")},
	})
	require.NoError(t, err)

	out, err := f.svc.SubmitAttempt(ctx, student, a.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.ReviewPending, out.ReviewStatus)
	assert.Nil(t, out.Result)
	assert.Equal(t, 2.0, out.Score)

	_, err = f.svc.Result(ctx, student, a.ID)
	assert.ErrorIs(t, err, exam.ErrResultNotReady)

	t.Run("partial batch", func(t *testing.T) {
		_, err := f.svc.ReviewAttempt(ctx, teacher, a.ID, []attempt.ReviewInput{{QuestionID: "e1", Score: 4}}, "")
		require.ErrorIs(t, err, exam.ErrValidation)
		var ve *exam.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "incomplete_review", ve.Rule)
	})
	t.Run("score out of bounds", func(t *testing.T) {
		_, err := f.svc.ReviewAttempt(ctx, teacher, a.ID, []attempt.ReviewInput{{QuestionID: "e1", Score: 6}, {QuestionID: "e2", Score: 1}}, "")
		assert.ErrorIs(t, err, exam.ErrValidation)
		_, err = f.svc.ReviewAttempt(ctx, teacher, a.ID, []attempt.ReviewInput{{QuestionID: "e1", Score: -1}, {QuestionID: "e2", Score: 1}}, "")
		assert.ErrorIs(t, err, exam.ErrValidation)
	})
	t.Run("objective question", func(t *testing.T) {
		_, err := f.svc.ReviewAttempt(ctx, teacher, a.ID, []attempt.ReviewInput{{QuestionID: "q1", Score: 1}, {QuestionID: "e1", Score: 1}, {QuestionID: "e2", Score: 1}}, "")
		assert.ErrorIs(t, err, exam.ErrValidation)
	})
	t.Run("duplicate", func(t *testing.T) {
		_, err := f.svc.ReviewAttempt(ctx, teacher, a.ID, []attempt.ReviewInput{{QuestionID: "e1", Score: 1}, {QuestionID: "e1", Score: 2}}, "")
		assert.ErrorIs(t, err, exam.ErrConflict)
	})
	t.Run("learner cannot review", func(t *testing.T) {
		_, err := f.svc.ReviewAttempt(ctx, student, a.ID, []attempt.ReviewInput{{QuestionID: "e1", Score: 1}, {QuestionID: "e2", Score: 1}}, "")
		assert.ErrorIs(t, err, exam.ErrNotFound)
	})

	// rejected batches left nothing behind
	answers, err := f.store.ListAnswers(ctx, a.ID)
	require.NoError(t, err)
	for _, ua := range answers {
		if ua.QuestionID != "q1" {
			assert.Equal(t, exam.ReviewPending, ua.ReviewStatus)
		}
	}

	out, err = f.svc.ReviewAttempt(ctx, teacher, a.ID, []attempt.ReviewInput{
		{QuestionID: "e1", Score: 4.5, Remarks: "good"},
		{QuestionID: "e2", Score: 2},
	}, "well done")
	require.NoError(t, err)
	assert.Equal(t, 8.5, out.Score)
	assert.Equal(t, exam.ReviewReviewed, out.ReviewStatus)
	require.NotNil(t, out.Result)
	assert.Equal(t, exam.ResultPass, *out.Result)

	got, err := f.store.GetAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "t9", got.ReviewedBy)
	assert.Equal(t, "well done", got.ReviewRemarks)

	_, err = f.svc.ReviewAttempt(ctx, teacher, a.ID, []attempt.ReviewInput{{QuestionID: "e1", Score: 1}, {QuestionID: "e2", Score: 1}}, "")
	assert.ErrorIs(t, err, exam.ErrInvalidState)

	res, err := f.svc.Result(ctx, teacher, a.ID)
	require.NoError(t, err)
	require.Len(t, res.Questions, 3)
	assert.Equal(t, "good", res.Questions[1].Remarks)
	assert.Equal(t, 11.0, res.MaxScore)

	_, err = f.svc.Result(ctx, other, a.ID)
	assert.ErrorIs(t, err, exam.ErrNotFound)

	assert.Contains(t, f.rec.names(), attempt.EventAttemptReviewed)
}

func TestReviewAttempt_NotSubmittedOrObjective(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 2), essay("e1", 5))
	f.plainTest(t, exam.Test{ID: "T"}, "q1", "e1")
	a, err := f.svc.Start(ctx, student, "T")
	require.NoError(t, err)

	_, err = f.svc.ReviewAttempt(ctx, teacher, a.ID, []attempt.ReviewInput{{QuestionID: "e1", Score: 1}}, "")
	assert.ErrorIs(t, err, exam.ErrInvalidState)

	_, err = f.svc.Result(ctx, student, a.ID)
	assert.ErrorIs(t, err, exam.ErrInvalidState)
}

func TestNotifierFailureDoesNotUndoOperation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.rec.err = errors.New("bus down")
	f.put(t, mcq("q1", 2))
	f.plainTest(t, exam.Test{ID: "T"}, "q1")

	a, err := f.svc.Start(ctx, student, "T")
	require.NoError(t, err)
	_, err = f.store.GetAttempt(ctx, a.ID)
	require.NoError(t, err)

	entry := f.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, attempt.EventAttemptStarted, entry.Data["event"])
}

func TestUserTestStatusAndAttempts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, mcq("q1", 100))
	f.plainTest(t, exam.Test{ID: "T", Attempts: 3, IsObjective: true, PassingMarks: 55, AttemptsGrading: exam.GradeAverage}, "q1")

	st, err := f.svc.UserTestStatus(ctx, student, "T", "")
	require.NoError(t, err)
	assert.True(t, st.CanAttempt)

	a, err := f.svc.Start(ctx, student, "T")
	require.NoError(t, err)
	st, err = f.svc.UserTestStatus(ctx, student, "T", "")
	require.NoError(t, err)
	assert.True(t, st.CanResume)
	assert.Equal(t, a.ID, st.ResumeID)
	assert.Nil(t, st.GradedAttempt)

	_, err = f.svc.SubmitAnswers(ctx, student, a.ID, []attempt.AnswerInput{{QuestionID: "q1", Answer: pick("q1-a")}})
	require.NoError(t, err)
	_, err = f.svc.SubmitAttempt(ctx, student, a.ID)
	require.NoError(t, err)

	b, err := f.svc.Start(ctx, student, "T")
	require.NoError(t, err)
	_, err = f.svc.SubmitAttempt(ctx, student, b.ID)
	require.NoError(t, err)

	st, err = f.svc.UserTestStatus(ctx, teacher, "T", "u1")
	require.NoError(t, err)
	assert.True(t, st.CanAttempt)
	assert.False(t, st.CanResume)
	require.NotNil(t, st.GradedAttempt)
	assert.Equal(t, 50.0, st.GradedAttempt.Score)
	assert.Equal(t, exam.ResultFail, st.GradedAttempt.Result)
	assert.Nil(t, st.GradedAttempt.AttemptID)
	require.NotNil(t, st.LastAttempt)
	assert.Equal(t, b.ID, st.LastAttempt.ID)

	_, err = f.svc.UserTestStatus(ctx, other, "T", "u1")
	assert.ErrorIs(t, err, exam.ErrNotFound)

	atts, err := f.svc.ListAttempts(ctx, student, "T", "")
	require.NoError(t, err)
	require.Len(t, atts, 2)
	assert.Equal(t, 1, atts[0].Seq)
	assert.Equal(t, 2, atts[1].Seq)
}
