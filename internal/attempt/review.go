package attempt

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

// ReviewAttempt applies a reviewer's scores to every pending subjective
// answer of a submitted attempt and finalizes its score and result.
func (s *Service) ReviewAttempt(ctx context.Context, actor exam.Actor, attemptID string, reviews []ReviewInput, overallRemarks string) (Outcome, error) {
	if !actor.CanReview() {
		return Outcome{}, exam.NotFoundf("attempt %s", attemptID)
	}
	if len(reviews) == 0 {
		return Outcome{}, exam.Invalid("reviews_required", "", "at least one review is required")
	}
	seen := make(map[string]struct{}, len(reviews))
	for _, r := range reviews {
		if _, dup := seen[r.QuestionID]; dup {
			return Outcome{}, exam.Conflictf("question %s reviewed twice in one batch", r.QuestionID)
		}
		seen[r.QuestionID] = struct{}{}
	}

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
		if !sameTenant(actor, a.TenantID) {
			return exam.NotFoundf("attempt %s", attemptID)
		}
		if a.Status != exam.AttemptSubmitted {
			return exam.InvalidStatef("attempt %s is not submitted", attemptID)
		}
		if a.ReviewStatus != exam.ReviewPending {
			return exam.InvalidStatef("attempt %s is not awaiting review", attemptID)
		}
		test, err := tx.GetTest(ctx, a.TestID)
		if err != nil {
			return err
		}
		if test.IsObjective {
			return exam.InvalidStatef("test %s is objective and has nothing to review", test.ID)
		}

		answers, err := tx.ListAnswers(ctx, attemptID)
		if err != nil {
			return fmt.Errorf("list answers: %w", err)
		}
		byAnswer := answerMap(answers)
		qs, err := tx.GetQuestions(ctx, answerIDs(answers))
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
		byID := questionMap(qs)

		for _, r := range reviews {
			if _, ok := byAnswer[r.QuestionID]; !ok {
				return exam.Invalid("question_not_in_attempt", r.QuestionID, "the attempt has no answer for this question")
			}
			q, ok := byID[r.QuestionID]
			if !ok || !q.Type.Subjective() {
				return exam.Invalid("not_reviewable", r.QuestionID, "only subjective and essay answers are reviewed")
			}
			if math.IsNaN(r.Score) || r.Score < 0 || r.Score > q.Marks {
				return exam.Invalid("score_out_of_bounds", r.QuestionID, fmt.Sprintf("score %v is outside [0, %v]", r.Score, q.Marks))
			}
		}
		var missing []string
		for _, ua := range answers {
			if ua.ReviewStatus != exam.ReviewPending {
				continue
			}
			if _, ok := seen[ua.QuestionID]; !ok {
				missing = append(missing, ua.QuestionID)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return exam.Invalid("incomplete_review", "", "pending answers not reviewed: "+strings.Join(missing, ", "))
		}

		for _, r := range reviews {
			ua := byAnswer[r.QuestionID]
			score := round2(r.Score)
			ua.Score = &score
			ua.ReviewStatus = exam.ReviewReviewed
			ua.ReviewerID = actor.UserID
			ua.Remarks = r.Remarks
			ua.ReviewedAt = &now
			if err := tx.UpsertAnswer(ctx, ua); err != nil {
				return fmt.Errorf("save review %s: %w", ua.QuestionID, err)
			}
			byAnswer[ua.QuestionID] = ua
		}

		total := 0.0
		for _, ua := range byAnswer {
			if ua.Score != nil {
				total += *ua.Score
			}
		}
		res := exam.ResultFor(round2(total), test.PassingMarks)
		a.Score = round2(total)
		a.Result = &res
		a.ReviewStatus = exam.ReviewReviewed
		a.ReviewedBy = actor.UserID
		a.ReviewedAt = &now
		a.ReviewRemarks = overallRemarks
		return tx.UpdateAttempt(ctx, a)
	})
	if err != nil {
		return Outcome{}, err
	}

	out := outcomeOf(a)
	s.log.WithFields(logrus.Fields{
		"attempt_id": a.ID, "reviewer": actor.UserID, "score": a.Score,
	}).Info("attempt reviewed")
	s.emit(ctx, s.event(EventAttemptReviewed, a, map[string]any{
		"score": out.Score, "result": out.Result, "reviewed_by": actor.UserID,
	}))
	return out, nil
}
