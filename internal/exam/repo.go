package exam

import "context"

// Tx is the set of reads and writes available inside one unit of work.
// Implementations return errors matching ErrNotFound for missing rows.
type Tx interface {
	GetTest(ctx context.Context, id string) (Test, error)
	PutTest(ctx context.Context, t Test) error
	ListSections(ctx context.Context, testID string) ([]Section, error)
	PutSection(ctx context.Context, s Section) error

	// ListTestQuestions returns the links of a test ordered by Ordering.
	ListTestQuestions(ctx context.Context, testID string) ([]TestQuestion, error)
	AddTestQuestions(ctx context.Context, links []TestQuestion) error

	// GetQuestions loads questions with their options. Unknown ids are skipped.
	GetQuestions(ctx context.Context, ids []string) ([]Question, error)
	// ListPublishedQuestions returns the tenant's catalog in catalog order
	// (created_at, id) with options.
	ListPublishedQuestions(ctx context.Context, tenantID string) ([]Question, error)
	PutQuestion(ctx context.Context, q Question) error

	// ListActiveRules returns active rules ordered by priority desc, id asc.
	ListActiveRules(ctx context.Context, testID string) ([]Rule, error)
	PutRule(ctx context.Context, r Rule) error

	CountAttempts(ctx context.Context, testID, userID string) (int, error)
	// ListAttempts returns a user's attempts on a test ordered by Seq.
	ListAttempts(ctx context.Context, testID, userID string) ([]Attempt, error)
	CreateAttempt(ctx context.Context, a Attempt) error
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	// LockAttempt reads an attempt and holds a write lock on it until the
	// unit of work ends, where the backend supports row locks.
	LockAttempt(ctx context.Context, id string) (Attempt, error)
	UpdateAttempt(ctx context.Context, a Attempt) error

	// UpsertAnswer writes the answer keyed by (AttemptID, QuestionID); a
	// second write for the same key replaces the first.
	UpsertAnswer(ctx context.Context, ua UserAnswer) error
	ListAnswers(ctx context.Context, attemptID string) ([]UserAnswer, error)
}

// Store is the persistence boundary. Reads on the Store itself run outside
// any unit of work; WithTx commits when fn returns nil and rolls back
// otherwise.
type Store interface {
	Tx
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
