package exam

import (
	"encoding/json"
	"time"
)

type TestType string

const (
	TestPlain     TestType = "PLAIN"
	TestRuleBased TestType = "RULE_BASED"
	TestGenerated TestType = "GENERATED" // one per rule-based attempt, never edited
)

type TestStatus string

const (
	TestDraft       TestStatus = "DRAFT"
	TestPublished   TestStatus = "PUBLISHED"
	TestUnpublished TestStatus = "UNPUBLISHED"
	TestArchived    TestStatus = "ARCHIVED"
)

type GradingMethod string

const (
	GradeFirstAttempt GradingMethod = "FIRST_ATTEMPT"
	GradeLastAttempt  GradingMethod = "LAST_ATTEMPT"
	GradeHighest      GradingMethod = "HIGHEST"
	GradeAverage      GradingMethod = "AVERAGE"
)

type Test struct {
	ID              string        `json:"id" yaml:"id"`
	TenantID        string        `json:"tenant_id" yaml:"tenant_id"`
	Title           string        `json:"title" yaml:"title"`
	Type            TestType      `json:"type" yaml:"type"`
	Status          TestStatus    `json:"status" yaml:"status"`
	Attempts        int           `json:"attempts" yaml:"attempts"` // 0 = unlimited
	AttemptsGrading GradingMethod `json:"attempts_grading,omitempty" yaml:"attempts_grading"`
	PassingMarks    float64       `json:"passing_marks" yaml:"passing_marks"`
	TotalMarks      float64       `json:"total_marks" yaml:"total_marks"`
	IsObjective     bool          `json:"is_objective" yaml:"is_objective"`
	DurationSec     int           `json:"duration_sec,omitempty" yaml:"duration_sec"`
	StartDate       *time.Time    `json:"start_date,omitempty" yaml:"start_date"`
	EndDate         *time.Time    `json:"end_date,omitempty" yaml:"end_date"`

	// SingleSubmission tests accept one attempt per learner regardless of Attempts.
	SingleSubmission bool   `json:"single_submission,omitempty" yaml:"single_submission"`
	ParentTestID     string `json:"parent_test_id,omitempty" yaml:"-"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// GradingMethod returns the configured aggregation method, LAST_ATTEMPT when unset.
func (t Test) GradingMethod() GradingMethod {
	if t.AttemptsGrading == "" {
		return GradeLastAttempt
	}
	return t.AttemptsGrading
}

// AvailableAt reports whether the test is published and inside its window.
func (t Test) AvailableAt(now time.Time) bool {
	if t.Status != TestPublished {
		return false
	}
	if t.StartDate != nil && now.Before(*t.StartDate) {
		return false
	}
	if t.EndDate != nil && now.After(*t.EndDate) {
		return false
	}
	return true
}

type Section struct {
	ID           string `json:"id" yaml:"id"`
	TestID       string `json:"test_id" yaml:"-"`
	Title        string `json:"title" yaml:"title"`
	Ordering     int    `json:"ordering" yaml:"ordering"`
	MinQuestions *int   `json:"min_questions,omitempty" yaml:"min_questions"`
	MaxQuestions *int   `json:"max_questions,omitempty" yaml:"max_questions"`
}

// TestQuestion links a question into a test at a position.
type TestQuestion struct {
	TestID     string `json:"test_id"`
	QuestionID string `json:"question_id"`
	SectionID  string `json:"section_id,omitempty"`
	Ordering   int    `json:"ordering"`
	RuleID     string `json:"rule_id,omitempty"` // set on generated tests
}

type QuestionStatus string

const (
	QuestionDraft     QuestionStatus = "DRAFT"
	QuestionPublished QuestionStatus = "PUBLISHED"
)

type GradingType string

const (
	GradingQuiz   GradingType = "QUIZ"
	GradingManual GradingType = "MANUAL"
)

// QuestionParams carries type specific knobs.
type QuestionParams struct {
	MinLength int `json:"min_length,omitempty" yaml:"min_length"`
	MaxLength int `json:"max_length,omitempty" yaml:"max_length"`
}

type Question struct {
	ID                  string         `json:"id" yaml:"id"`
	TenantID            string         `json:"tenant_id" yaml:"tenant_id"`
	Type                QuestionType   `json:"type" yaml:"type"`
	Text                string         `json:"text" yaml:"text"`
	Marks               float64        `json:"marks" yaml:"marks"`
	AllowPartialScoring bool           `json:"allow_partial_scoring" yaml:"allow_partial_scoring"`
	ParentID            string         `json:"parent_id,omitempty" yaml:"parent_id"`
	GradingType         GradingType    `json:"grading_type,omitempty" yaml:"grading_type"`
	Category            string         `json:"category,omitempty" yaml:"category"`
	Difficulty          string         `json:"difficulty,omitempty" yaml:"difficulty"`
	Tags                []string       `json:"tags,omitempty" yaml:"tags"`
	Status              QuestionStatus `json:"status" yaml:"status"`
	Params              QuestionParams `json:"params" yaml:"params"`
	CreatedAt           time.Time      `json:"created_at" yaml:"created_at"`

	Options []Option `json:"options,omitempty" yaml:"options"`
}

type Option struct {
	ID            string  `json:"id" yaml:"id"`
	QuestionID    string  `json:"question_id" yaml:"-"`
	Text          string  `json:"text" yaml:"text"`
	IsCorrect     bool    `json:"is_correct" yaml:"is_correct"`
	Marks         float64 `json:"marks,omitempty" yaml:"marks"`
	BlankIndex    int     `json:"blank_index,omitempty" yaml:"blank_index"`
	CaseSensitive bool    `json:"case_sensitive,omitempty" yaml:"case_sensitive"`
	MatchWith     string  `json:"match_with,omitempty" yaml:"match_with"`
	Ordering      int     `json:"ordering" yaml:"ordering"`
}

type SelectionStrategy string

const (
	SelectRandom     SelectionStrategy = "random"
	SelectSequential SelectionStrategy = "sequential"
	SelectWeighted   SelectionStrategy = "weighted"
)

type SelectionMode string

const (
	ModePreselected SelectionMode = "PRESELECTED"
	ModeDynamic     SelectionMode = "DYNAMIC"
)

// Criteria filters the question catalog. Empty fields do not filter.
type Criteria struct {
	Categories    []string       `json:"categories,omitempty" yaml:"categories"`
	Difficulties  []string       `json:"difficulties,omitempty" yaml:"difficulties"`
	Types         []QuestionType `json:"types,omitempty" yaml:"types"`
	Tags          []string       `json:"tags,omitempty" yaml:"tags"`
	MinMarks      *float64       `json:"min_marks,omitempty" yaml:"min_marks"`
	MaxMarks      *float64       `json:"max_marks,omitempty" yaml:"max_marks"`
	IncludeIDs    []string       `json:"include_ids,omitempty" yaml:"include_ids"`
	ExcludeIDs    []string       `json:"exclude_ids,omitempty" yaml:"exclude_ids"`
	CreatedAfter  *time.Time     `json:"created_after,omitempty" yaml:"created_after"`
	CreatedBefore *time.Time     `json:"created_before,omitempty" yaml:"created_before"`
}

type Rule struct {
	ID                string            `json:"id" yaml:"id"`
	TestID            string            `json:"test_id" yaml:"-"`
	SectionID         string            `json:"section_id,omitempty" yaml:"section_id"`
	NumberOfQuestions int               `json:"number_of_questions" yaml:"number_of_questions"`
	PoolSize          int               `json:"pool_size,omitempty" yaml:"pool_size"`
	SelectionStrategy SelectionStrategy `json:"selection_strategy" yaml:"selection_strategy"`
	SelectionMode     SelectionMode     `json:"selection_mode" yaml:"selection_mode"`
	Criteria          Criteria          `json:"criteria" yaml:"criteria"`
	QuestionIDs       []string          `json:"question_ids,omitempty" yaml:"question_ids"` // PRESELECTED pool
	Priority          int               `json:"priority" yaml:"priority"`
	IsActive          bool              `json:"is_active" yaml:"-"`
}

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptSubmitted  AttemptStatus = "SUBMITTED"
)

type ReviewStatus string

const (
	ReviewPending       ReviewStatus = "PENDING"
	ReviewUnderReview   ReviewStatus = "UNDER_REVIEW"
	ReviewReviewed      ReviewStatus = "REVIEWED"
	ReviewNotApplicable ReviewStatus = "NOT_APPLICABLE"
)

type Result string

const (
	ResultPass Result = "PASS"
	ResultFail Result = "FAIL"
)

// ResultFor compares a score against the passing mark.
func ResultFor(score, passingMarks float64) Result {
	if score >= passingMarks {
		return ResultPass
	}
	return ResultFail
}

type Attempt struct {
	ID              string        `json:"id"`
	TenantID        string        `json:"tenant_id"`
	OrgID           string        `json:"org_id,omitempty"`
	UserID          string        `json:"user_id"`
	TestID          string        `json:"test_id"`
	Seq             int           `json:"attempt"`
	ResolvedTestID  string        `json:"resolved_test_id,omitempty"`
	Status          AttemptStatus `json:"status"`
	ReviewStatus    ReviewStatus  `json:"review_status"`
	Score           float64       `json:"score"`
	Result          *Result       `json:"result"`
	CurrentPosition int           `json:"current_position"`
	TimeSpentSec    int           `json:"time_spent_sec"`
	StartedAt       time.Time     `json:"started_at"`
	SubmittedAt     *time.Time    `json:"submitted_at,omitempty"`
	ReviewedBy      string        `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time    `json:"reviewed_at,omitempty"`
	ReviewRemarks   string        `json:"review_remarks,omitempty"`
}

// QuestionSetID is the test whose question links make up this attempt.
func (a Attempt) QuestionSetID() string {
	if a.ResolvedTestID != "" {
		return a.ResolvedTestID
	}
	return a.TestID
}

// Graded reports whether the attempt carries a final score.
func (a Attempt) Graded() bool {
	if a.Status != AttemptSubmitted {
		return false
	}
	return a.ReviewStatus == ReviewNotApplicable || a.ReviewStatus == ReviewReviewed
}

type UserAnswer struct {
	AttemptID    string          `json:"attempt_id"`
	QuestionID   string          `json:"question_id"`
	Payload      json.RawMessage `json:"answer"`
	Score        *float64        `json:"score"`
	ReviewStatus ReviewStatus    `json:"review_status"`
	ReviewerID   string          `json:"reviewer_id,omitempty"`
	Remarks      string          `json:"remarks,omitempty"`
	ReviewedAt   *time.Time      `json:"reviewed_at,omitempty"`
	TimeSpentSec int             `json:"time_spent_sec"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Actor is the authenticated caller an operation runs on behalf of.
type Actor struct {
	UserID   string
	OrgID    string
	TenantID string
	Role     string // student|teacher|admin
}

// CanReview reports whether the actor may grade and read other learners' attempts.
func (a Actor) CanReview() bool {
	return a.Role == "teacher" || a.Role == "admin"
}
