// Package attempt runs the attempt state machine: starting an attempt,
// taking answers, submitting and reviewing. Every operation is one unit of
// work against exam.Store.
package attempt

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-assess/internal/exam"
	"github.com/mind-engage/mindengage-assess/internal/grading"
	"github.com/mind-engage/mindengage-assess/internal/selection"
)

type Service struct {
	store  exam.Store
	engine *grading.Engine
	rules  *selection.RuleSetResolver
	notify Notifier
	log    logrus.FieldLogger
	now    func() time.Time
	newID  func() string
	locks  *keyedMutex
}

type Option func(*Service)

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notify = n } }
func WithLogger(l logrus.FieldLogger) Option { return func(s *Service) { s.log = l } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithIDs(newID func() string) Option { return func(s *Service) { s.newID = newID } }
func WithEngine(e *grading.Engine) Option { return func(s *Service) { s.engine = e } }
func WithResolver(r *selection.RuleSetResolver) Option {
	return func(s *Service) { s.rules = r }
}

func NewService(store exam.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		engine: grading.NewEngine(),
		notify: nopNotifier{},
		log:    logrus.StandardLogger(),
		now:    time.Now,
		newID:  uuid.NewString,
		locks:  newKeyedMutex(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.rules == nil {
		s.rules = selection.NewRuleSetResolver(selection.NewPoolResolver(nil, nil),
			selection.WithClock(s.now), selection.WithIDs(s.newID))
	}
	return s
}

// AnswerInput is one answer in a submission batch.
type AnswerInput struct {
	QuestionID   string          `json:"question_id"`
	Answer       json.RawMessage `json:"answer"`
	TimeSpentSec int             `json:"time_spent_sec"`
}

// ReviewInput is a reviewer's score for one subjective answer.
type ReviewInput struct {
	QuestionID string  `json:"question_id"`
	Score      float64 `json:"score"`
	Remarks    string  `json:"remarks,omitempty"`
}

// Outcome is what submit and review report back.
type Outcome struct {
	AttemptID    string            `json:"attempt_id"`
	Score        float64           `json:"score"`
	Result       *exam.Result      `json:"result"`
	ReviewStatus exam.ReviewStatus `json:"review_status"`
}

func outcomeOf(a exam.Attempt) Outcome {
	return Outcome{AttemptID: a.ID, Score: a.Score, Result: a.Result, ReviewStatus: a.ReviewStatus}
}

// Start creates a new attempt for actor on testID. Rule-based tests get a
// generated question set in the same unit of work.
func (s *Service) Start(ctx context.Context, actor exam.Actor, testID string) (exam.Attempt, error) {
	unlock := s.locks.Lock("start:" + testID + ":" + actor.UserID)
	defer unlock()

	now := s.now().UTC()
	var a exam.Attempt
	err := s.store.WithTx(ctx, func(tx exam.Tx) error {
		test, err := tx.GetTest(ctx, testID)
		if err != nil {
			return err
		}
		if !sameTenant(actor, test.TenantID) {
			return exam.NotFoundf("test %s", testID)
		}
		if test.Type == exam.TestGenerated || !test.AvailableAt(now) {
			return exam.ErrTestNotAvailable
		}
		made, err := tx.CountAttempts(ctx, testID, actor.UserID)
		if err != nil {
			return fmt.Errorf("count attempts: %w", err)
		}
		if (test.Attempts > 0 && made >= test.Attempts) || (test.SingleSubmission && made > 0) {
			return exam.ErrMaxAttemptsReached
		}

		a = exam.Attempt{
			ID:           s.newID(),
			TenantID:     test.TenantID,
			OrgID:        actor.OrgID,
			UserID:       actor.UserID,
			TestID:       testID,
			Seq:          made + 1,
			Status:       exam.AttemptInProgress,
			ReviewStatus: exam.ReviewNotApplicable,
			StartedAt:    now,
		}
		if test.Type == exam.TestRuleBased {
			gen, _, err := s.rules.Materialize(ctx, tx, test)
			if err != nil {
				return err
			}
			a.ResolvedTestID = gen.ID
		}
		if err := checkScoreable(ctx, tx, a.QuestionSetID()); err != nil {
			return err
		}
		if err := tx.CreateAttempt(ctx, a); err != nil {
			return fmt.Errorf("create attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		return exam.Attempt{}, err
	}

	s.log.WithFields(logrus.Fields{
		"attempt_id": a.ID, "test_id": a.TestID, "user_id": a.UserID, "attempt": a.Seq,
	}).Info("attempt started")
	s.emit(ctx, s.event(EventAttemptStarted, a, map[string]any{
		"test_id":          a.TestID,
		"attempt":          a.Seq,
		"resolved_test_id": a.ResolvedTestID,
	}))
	return a, nil
}

// checkScoreable rejects question sets with an objective question that has
// no correct option, naming every such question.
func checkScoreable(ctx context.Context, tx exam.Tx, testID string) error {
	links, err := tx.ListTestQuestions(ctx, testID)
	if err != nil {
		return fmt.Errorf("list test questions: %w", err)
	}
	if len(links) == 0 {
		return &exam.ConfigError{Msg: fmt.Sprintf("test %s has no questions", testID)}
	}
	qs, err := tx.GetQuestions(ctx, linkIDs(links))
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	var bad []string
	for _, q := range qs {
		if !q.Type.NeedsCorrectOption() {
			continue
		}
		if !hasCorrect(q.Options) {
			bad = append(bad, q.ID)
		}
	}
	if len(bad) > 0 {
		return &exam.ConfigError{Msg: "questions without a correct option", QuestionIDs: bad}
	}
	return nil
}

// SubmitAnswers validates the whole batch, then scores and stores each
// answer. A later submission for the same question replaces the earlier one.
func (s *Service) SubmitAnswers(ctx context.Context, actor exam.Actor, attemptID string, inputs []AnswerInput) ([]exam.UserAnswer, error) {
	if len(inputs) == 0 {
		return nil, exam.Invalid("answers_required", "", "at least one answer is required")
	}
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	now := s.now().UTC()
	var (
		a     exam.Attempt
		saved []exam.UserAnswer
	)
	err := s.store.WithTx(ctx, func(tx exam.Tx) error {
		var err error
		a, err = tx.LockAttempt(ctx, attemptID)
		if err != nil {
			return err
		}
		if a.UserID != actor.UserID || !sameTenant(actor, a.TenantID) {
			return exam.NotFoundf("attempt %s", attemptID)
		}
		if a.Status != exam.AttemptInProgress {
			return exam.ErrAlreadySubmitted
		}

		links, err := tx.ListTestQuestions(ctx, a.QuestionSetID())
		if err != nil {
			return fmt.Errorf("list test questions: %w", err)
		}
		ordering := make(map[string]int, len(links))
		for _, l := range links {
			ordering[l.QuestionID] = l.Ordering
		}
		ids := make([]string, 0, len(inputs))
		for _, in := range inputs {
			ids = append(ids, in.QuestionID)
		}
		qs, err := tx.GetQuestions(ctx, ids)
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
		byID := questionMap(qs)

		// validate everything before writing anything
		for _, in := range inputs {
			q, ok := byID[in.QuestionID]
			if _, linked := ordering[in.QuestionID]; !ok || !linked {
				return exam.NotFoundf("question %s in attempt %s", in.QuestionID, attemptID)
			}
			if in.TimeSpentSec < 0 {
				return exam.Invalid("time_spent", in.QuestionID, "time spent cannot be negative")
			}
			if err := grading.Validate(q, in.Answer); err != nil {
				return err
			}
		}

		existing, err := tx.ListAnswers(ctx, attemptID)
		if err != nil {
			return fmt.Errorf("list answers: %w", err)
		}
		prior := answerMap(existing)

		for _, in := range inputs {
			q := byID[in.QuestionID]
			ua := exam.UserAnswer{
				AttemptID:    attemptID,
				QuestionID:   q.ID,
				Payload:      in.Answer,
				TimeSpentSec: prior[q.ID].TimeSpentSec + in.TimeSpentSec,
				UpdatedAt:    now,
			}
			if q.Type.Subjective() {
				ua.ReviewStatus = exam.ReviewPending
			} else {
				pts := s.engine.Score(&q, nil, in.Answer).Points
				ua.Score = &pts
				ua.ReviewStatus = exam.ReviewNotApplicable
			}
			if err := tx.UpsertAnswer(ctx, ua); err != nil {
				return fmt.Errorf("save answer %s: %w", q.ID, err)
			}
			prior[q.ID] = ua
			saved = append(saved, ua)
			a.TimeSpentSec += in.TimeSpentSec
		}
		a.CurrentPosition = ordering[inputs[len(inputs)-1].QuestionID]
		return tx.UpdateAttempt(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(saved))
	for _, ua := range saved {
		payload := map[string]any{"question_id": ua.QuestionID, "review_status": ua.ReviewStatus}
		if ua.Score != nil {
			payload["score"] = *ua.Score
		}
		events = append(events, s.event(EventAnswerSubmitted, a, payload))
	}
	s.emit(ctx, events...)
	return saved, nil
}

// SubmitAttempt closes the attempt and scores it. Tests with pending
// subjective answers stay without a result until reviewed.
func (s *Service) SubmitAttempt(ctx context.Context, actor exam.Actor, attemptID string) (Outcome, error) {
	unlock := s.locks.Lock(attemptID)
	defer unlock()

	now := s.now().UTC()
	var a exam.Attempt
	err := s.store.WithTx(ctx, func(tx exam.Tx) error {
		var err error
		a, err = tx.LockAttempt(ctx, attemptID)
		if err != nil {
			return err
		}
		if a.UserID != actor.UserID || !sameTenant(actor, a.TenantID) {
			return exam.NotFoundf("attempt %s", attemptID)
		}
		if a.Status != exam.AttemptInProgress {
			return exam.ErrAlreadySubmitted
		}
		test, err := tx.GetTest(ctx, a.TestID)
		if err != nil {
			return err
		}
		answers, err := tx.ListAnswers(ctx, attemptID)
		if err != nil {
			return fmt.Errorf("list answers: %w", err)
		}
		qs, err := tx.GetQuestions(ctx, answerIDs(answers))
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
		byID := questionMap(qs)

		pendingReview := false
		if !test.IsObjective {
			for _, ua := range answers {
				if q, ok := byID[ua.QuestionID]; ok && q.Type.Subjective() {
					pendingReview = true
					break
				}
			}
		}

		total := 0.0
		for _, ua := range answers {
			q, ok := byID[ua.QuestionID]
			var qp *exam.Question
			if ok {
				qp = &q
			}
			switch {
			case ok && q.Type.Subjective() && pendingReview:
				ua.Score = nil
				ua.ReviewStatus = exam.ReviewPending
			case ok && q.Type.Subjective():
				// objective test: nobody will review this
				zero := 0.0
				ua.Score = &zero
				ua.ReviewStatus = exam.ReviewNotApplicable
			default:
				pts := s.engine.Score(qp, nil, ua.Payload).Points
				ua.Score = &pts
				ua.ReviewStatus = exam.ReviewNotApplicable
				total += pts
			}
			if err := tx.UpsertAnswer(ctx, ua); err != nil {
				return fmt.Errorf("save answer %s: %w", ua.QuestionID, err)
			}
		}

		a.Score = round2(total)
		a.Status = exam.AttemptSubmitted
		a.SubmittedAt = &now
		if pendingReview {
			a.ReviewStatus = exam.ReviewPending
			a.Result = nil
		} else {
			res := exam.ResultFor(a.Score, test.PassingMarks)
			a.ReviewStatus = exam.ReviewNotApplicable
			a.Result = &res
		}
		return tx.UpdateAttempt(ctx, a)
	})
	if err != nil {
		return Outcome{}, err
	}

	out := outcomeOf(a)
	s.log.WithFields(logrus.Fields{
		"attempt_id": a.ID, "test_id": a.TestID, "user_id": a.UserID,
		"score": a.Score, "review_status": a.ReviewStatus,
	}).Info("attempt submitted")
	s.emit(ctx, s.event(EventAttemptSubmitted, a, map[string]any{
		"score": out.Score, "result": out.Result, "review_status": out.ReviewStatus,
	}))
	return out, nil
}

func (s *Service) event(name string, a exam.Attempt, payload map[string]any) Event {
	return Event{
		Name:      name,
		TenantID:  a.TenantID,
		OrgID:     a.OrgID,
		UserID:    a.UserID,
		AttemptID: a.ID,
		Payload:   payload,
		At:        s.now().UTC(),
	}
}

func (s *Service) emit(ctx context.Context, events ...Event) {
	for _, e := range events {
		if err := s.notify.Notify(ctx, e); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"event": e.Name, "attempt_id": e.AttemptID,
			}).Warn("event notification failed")
		}
	}
}

// helpers

func sameTenant(actor exam.Actor, tenantID string) bool {
	return actor.TenantID == "" || actor.TenantID == tenantID
}

func hasCorrect(opts []exam.Option) bool {
	for _, o := range opts {
		if o.IsCorrect {
			return true
		}
	}
	return false
}

func linkIDs(links []exam.TestQuestion) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.QuestionID
	}
	return out
}

func answerIDs(answers []exam.UserAnswer) []string {
	out := make([]string, len(answers))
	for i, ua := range answers {
		out[i] = ua.QuestionID
	}
	return out
}

func questionMap(qs []exam.Question) map[string]exam.Question {
	m := make(map[string]exam.Question, len(qs))
	for _, q := range qs {
		m[q.ID] = q
	}
	return m
}

func answerMap(answers []exam.UserAnswer) map[string]exam.UserAnswer {
	m := make(map[string]exam.UserAnswer, len(answers))
	for _, ua := range answers {
		m[ua.QuestionID] = ua
	}
	return m
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
