package attempt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mind-engage/mindengage-assess/internal/exam"
	"github.com/mind-engage/mindengage-assess/internal/grades"
)

// QuestionResult is one line of a graded breakdown.
type QuestionResult struct {
	QuestionID   string            `json:"question_id"`
	Type         exam.QuestionType `json:"type"`
	Ordering     int               `json:"ordering"`
	SectionID    string            `json:"section_id,omitempty"`
	Marks        float64           `json:"marks"`
	Answered     bool              `json:"answered"`
	Answer       json.RawMessage   `json:"answer,omitempty"`
	Score        float64           `json:"score"`
	ReviewStatus exam.ReviewStatus `json:"review_status,omitempty"`
	Remarks      string            `json:"remarks,omitempty"`
}

// Breakdown is the full graded view of one attempt.
type Breakdown struct {
	Attempt      exam.Attempt     `json:"attempt"`
	TestTitle    string           `json:"test_title"`
	MaxScore     float64          `json:"max_score"`
	PassingMarks float64          `json:"passing_marks"`
	Questions    []QuestionResult `json:"questions"`
}

// Result returns the graded breakdown of a finished attempt. Learners see
// their own attempts; reviewers see any attempt in their tenant.
func (s *Service) Result(ctx context.Context, actor exam.Actor, attemptID string) (Breakdown, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Breakdown{}, err
	}
	if !canRead(actor, a) {
		return Breakdown{}, exam.NotFoundf("attempt %s", attemptID)
	}
	switch {
	case a.Status != exam.AttemptSubmitted:
		return Breakdown{}, exam.InvalidStatef("attempt %s is still in progress", attemptID)
	case !a.Graded():
		return Breakdown{}, exam.ErrResultNotReady
	}

	test, err := s.store.GetTest(ctx, a.TestID)
	if err != nil {
		return Breakdown{}, err
	}
	links, err := s.store.ListTestQuestions(ctx, a.QuestionSetID())
	if err != nil {
		return Breakdown{}, fmt.Errorf("list test questions: %w", err)
	}
	qs, err := s.store.GetQuestions(ctx, linkIDs(links))
	if err != nil {
		return Breakdown{}, fmt.Errorf("load questions: %w", err)
	}
	answers, err := s.store.ListAnswers(ctx, attemptID)
	if err != nil {
		return Breakdown{}, fmt.Errorf("list answers: %w", err)
	}
	byID := questionMap(qs)
	byAnswer := answerMap(answers)

	b := Breakdown{Attempt: a, TestTitle: test.Title, PassingMarks: test.PassingMarks}
	for _, l := range links {
		q, ok := byID[l.QuestionID]
		if !ok || !q.Type.Scored() {
			continue
		}
		line := QuestionResult{
			QuestionID: q.ID,
			Type:       q.Type,
			Ordering:   l.Ordering,
			SectionID:  l.SectionID,
			Marks:      q.Marks,
		}
		if ua, ok := byAnswer[q.ID]; ok {
			line.Answered = true
			line.Answer = ua.Payload
			line.ReviewStatus = ua.ReviewStatus
			line.Remarks = ua.Remarks
			if ua.Score != nil {
				line.Score = *ua.Score
			}
		}
		b.MaxScore += q.Marks
		b.Questions = append(b.Questions, line)
	}
	b.MaxScore = round2(b.MaxScore)
	return b, nil
}

// UserTestStatus reports whether userID may start or resume testID and the
// grade their attempts add up to. An empty userID means the actor.
func (s *Service) UserTestStatus(ctx context.Context, actor exam.Actor, testID, userID string) (grades.UserTestStatus, error) {
	test, attempts, err := s.userAttempts(ctx, actor, testID, userID)
	if err != nil {
		return grades.UserTestStatus{}, err
	}
	if userID == "" {
		userID = actor.UserID
	}
	return grades.Status(test, userID, attempts, s.now().UTC()), nil
}

// ListAttempts returns userID's attempts on testID ordered by sequence.
func (s *Service) ListAttempts(ctx context.Context, actor exam.Actor, testID, userID string) ([]exam.Attempt, error) {
	_, attempts, err := s.userAttempts(ctx, actor, testID, userID)
	return attempts, err
}

func (s *Service) userAttempts(ctx context.Context, actor exam.Actor, testID, userID string) (exam.Test, []exam.Attempt, error) {
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID && !actor.CanReview() {
		return exam.Test{}, nil, exam.NotFoundf("test %s", testID)
	}
	test, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return exam.Test{}, nil, err
	}
	if !sameTenant(actor, test.TenantID) {
		return exam.Test{}, nil, exam.NotFoundf("test %s", testID)
	}
	attempts, err := s.store.ListAttempts(ctx, testID, userID)
	if err != nil {
		return exam.Test{}, nil, fmt.Errorf("list attempts: %w", err)
	}
	return test, attempts, nil
}

func canRead(actor exam.Actor, a exam.Attempt) bool {
	if !sameTenant(actor, a.TenantID) {
		return false
	}
	return a.UserID == actor.UserID || actor.CanReview()
}
