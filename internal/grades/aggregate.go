// Package grades folds a learner's attempts on a test into one final grade.
package grades

import (
	"math"
	"time"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

// Final is the aggregated grade. AttemptID is nil for AVERAGE, which has no
// single backing attempt.
type Final struct {
	Method    exam.GradingMethod `json:"method"`
	Score     float64            `json:"score"`
	Result    exam.Result        `json:"result"`
	AttemptID *string            `json:"attempt_id"`
	Counted   int                `json:"counted_attempts"`
}

// Qualifies reports whether an attempt counts towards the final grade.
func Qualifies(a exam.Attempt) bool {
	if a.Status != exam.AttemptSubmitted {
		return false
	}
	switch a.ReviewStatus {
	case exam.ReviewPending, exam.ReviewUnderReview:
		return false
	case exam.ReviewReviewed, exam.ReviewNotApplicable:
		return true
	}
	return false
}

// Aggregate combines attempts with method. ok is false when no attempt
// qualifies yet.
func Aggregate(method exam.GradingMethod, passingMarks float64, attempts []exam.Attempt) (Final, bool) {
	var qs []exam.Attempt
	for _, a := range attempts {
		if Qualifies(a) {
			qs = append(qs, a)
		}
	}
	if len(qs) == 0 {
		return Final{}, false
	}
	if method == "" {
		method = exam.GradeLastAttempt
	}

	var pick *exam.Attempt
	switch method {
	case exam.GradeFirstAttempt:
		pick = &qs[0]
		for i := range qs {
			if qs[i].Seq < pick.Seq {
				pick = &qs[i]
			}
		}
	case exam.GradeLastAttempt:
		pick = &qs[0]
		for i := range qs {
			if qs[i].Seq > pick.Seq {
				pick = &qs[i]
			}
		}
	case exam.GradeHighest:
		pick = &qs[0]
		for i := range qs {
			if qs[i].Score > pick.Score || (qs[i].Score == pick.Score && qs[i].Seq < pick.Seq) {
				pick = &qs[i]
			}
		}
	case exam.GradeAverage:
		sum := 0.0
		for _, a := range qs {
			sum += a.Score
		}
		mean := math.Round(sum/float64(len(qs))*100) / 100
		return Final{Method: method, Score: mean, Result: exam.ResultFor(mean, passingMarks), Counted: len(qs)}, true
	default:
		return Final{}, false
	}

	id := pick.ID
	res := exam.ResultFor(pick.Score, passingMarks)
	if pick.Result != nil {
		res = *pick.Result
	}
	return Final{Method: method, Score: pick.Score, Result: res, AttemptID: &id, Counted: len(qs)}, true
}

// UserTestStatus answers what a learner may do next on a test.
type UserTestStatus struct {
	TestID        string        `json:"test_id"`
	UserID        string        `json:"user_id"`
	AttemptsMade  int           `json:"attempts_made"`
	AttemptsLimit int           `json:"attempts_limit"` // 0 = unlimited
	CanAttempt    bool          `json:"can_attempt"`
	CanResume     bool          `json:"can_resume"`
	ResumeID      string        `json:"resume_attempt_id,omitempty"`
	GradedAttempt *Final        `json:"graded_attempt"`
	LastAttempt   *exam.Attempt `json:"last_attempt"`
}

// Status derives a UserTestStatus from the test and the user's attempts.
func Status(t exam.Test, userID string, attempts []exam.Attempt, now time.Time) UserTestStatus {
	st := UserTestStatus{TestID: t.ID, UserID: userID, AttemptsMade: len(attempts), AttemptsLimit: t.Attempts}

	made := len(attempts)
	st.CanAttempt = t.Type != exam.TestGenerated &&
		t.AvailableAt(now) &&
		(t.Attempts == 0 || made < t.Attempts) &&
		(!t.SingleSubmission || made == 0)

	for i := range attempts {
		a := attempts[i]
		if st.LastAttempt == nil || a.Seq > st.LastAttempt.Seq {
			st.LastAttempt = &a
		}
		if a.Status == exam.AttemptInProgress {
			st.CanResume = true
			st.ResumeID = a.ID
		}
	}
	if f, ok := Aggregate(t.GradingMethod(), t.PassingMarks, attempts); ok {
		st.GradedAttempt = &f
	}
	return st
}
