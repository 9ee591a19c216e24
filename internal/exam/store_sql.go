package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Store over database/sql. The same type serves as the
// Tx handed to WithTx callbacks, bound to a *sql.Tx instead of the pool.
type SQLStore struct {
	db     *sql.DB
	q      querier
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, q: db, driver: driver}
}

func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	if _, nested := s.q.(*sql.Tx); nested {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(&SQLStore{db: s.db, q: tx, driver: s.driver}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ---- tests & sections ----

const testColumns = `id,tenant_id,title,type,status,attempts,attempts_grading,passing_marks,total_marks,
	is_objective,duration_sec,start_date,end_date,single_submission,parent_test_id,created_at`

func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+testColumns+` FROM tests WHERE id=$1`, id)
	var (
		t          Test
		start, end sql.NullInt64
		created    int64
	)
	err := row.Scan(&t.ID, &t.TenantID, &t.Title, &t.Type, &t.Status, &t.Attempts, &t.AttemptsGrading,
		&t.PassingMarks, &t.TotalMarks, &t.IsObjective, &t.DurationSec, &start, &end,
		&t.SingleSubmission, &t.ParentTestID, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, NotFoundf("test %s", id)
		}
		return Test{}, fmt.Errorf("get test: %w", err)
	}
	t.StartDate = fromUnixNull(start)
	t.EndDate = fromUnixNull(end)
	t.CreatedAt = time.Unix(created, 0).UTC()
	return t, nil
}

func (s *SQLStore) PutTest(ctx context.Context, t Test) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err := s.q.ExecContext(ctx, `INSERT INTO tests (`+testColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, type=EXCLUDED.type, status=EXCLUDED.status,
			attempts=EXCLUDED.attempts, attempts_grading=EXCLUDED.attempts_grading,
			passing_marks=EXCLUDED.passing_marks, total_marks=EXCLUDED.total_marks,
			is_objective=EXCLUDED.is_objective, duration_sec=EXCLUDED.duration_sec,
			start_date=EXCLUDED.start_date, end_date=EXCLUDED.end_date,
			single_submission=EXCLUDED.single_submission`,
		t.ID, t.TenantID, t.Title, string(t.Type), string(t.Status), t.Attempts, string(t.AttemptsGrading),
		t.PassingMarks, t.TotalMarks, t.IsObjective, t.DurationSec, toUnixNull(t.StartDate), toUnixNull(t.EndDate),
		t.SingleSubmission, t.ParentTestID, t.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("put test: %w", err)
	}
	return nil
}

func (s *SQLStore) ListSections(ctx context.Context, testID string) ([]Section, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id,test_id,title,ordering,min_questions,max_questions
		FROM sections WHERE test_id=$1 ORDER BY ordering, id`, testID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()
	var out []Section
	for rows.Next() {
		var (
			sec        Section
			minQ, maxQ sql.NullInt64
		)
		if err := rows.Scan(&sec.ID, &sec.TestID, &sec.Title, &sec.Ordering, &minQ, &maxQ); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sec.MinQuestions = intPtrNull(minQ)
		sec.MaxQuestions = intPtrNull(maxQ)
		out = append(out, sec)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutSection(ctx context.Context, sec Section) error {
	_, err := s.q.ExecContext(ctx, `INSERT INTO sections (id,test_id,title,ordering,min_questions,max_questions)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, ordering=EXCLUDED.ordering,
			min_questions=EXCLUDED.min_questions, max_questions=EXCLUDED.max_questions`,
		sec.ID, sec.TestID, sec.Title, sec.Ordering, nullInt(sec.MinQuestions), nullInt(sec.MaxQuestions))
	if err != nil {
		return fmt.Errorf("put section: %w", err)
	}
	return nil
}

func (s *SQLStore) ListTestQuestions(ctx context.Context, testID string) ([]TestQuestion, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT test_id,question_id,section_id,ordering,rule_id
		FROM test_questions WHERE test_id=$1 ORDER BY ordering, question_id`, testID)
	if err != nil {
		return nil, fmt.Errorf("list test questions: %w", err)
	}
	defer rows.Close()
	var out []TestQuestion
	for rows.Next() {
		var tq TestQuestion
		if err := rows.Scan(&tq.TestID, &tq.QuestionID, &tq.SectionID, &tq.Ordering, &tq.RuleID); err != nil {
			return nil, fmt.Errorf("scan test question: %w", err)
		}
		out = append(out, tq)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddTestQuestions(ctx context.Context, links []TestQuestion) error {
	for _, l := range links {
		res, err := s.q.ExecContext(ctx, `INSERT INTO test_questions (test_id,question_id,section_id,ordering,rule_id)
			VALUES ($1,$2,$3,$4,$5) ON CONFLICT (test_id,question_id) DO NOTHING`,
			l.TestID, l.QuestionID, l.SectionID, l.Ordering, l.RuleID)
		if err != nil {
			return fmt.Errorf("add test question: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return Conflictf("question %s already linked to test %s", l.QuestionID, l.TestID)
		}
	}
	return nil
}

// ---- questions ----

const questionColumns = `id,tenant_id,type,text,marks,allow_partial_scoring,parent_id,grading_type,
	category,difficulty,tags_json,status,params_json,created_at`

func (s *SQLStore) GetQuestions(ctx context.Context, ids []string) ([]Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.q.QueryContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id IN (`+placeholders(1, len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	byID, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}
	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return s.attachOptions(ctx, out)
}

func (s *SQLStore) ListPublishedQuestions(ctx context.Context, tenantID string) ([]Question, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+questionColumns+` FROM questions
		WHERE tenant_id=$1 AND status=$2 ORDER BY created_at, id`, tenantID, string(QuestionPublished))
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.attachOptions(ctx, out)
}

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) error {
	tags, _ := json.Marshal(q.Tags)
	params, _ := json.Marshal(q.Params)
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	_, err := s.q.ExecContext(ctx, `INSERT INTO questions (`+questionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO UPDATE SET type=EXCLUDED.type, text=EXCLUDED.text, marks=EXCLUDED.marks,
			allow_partial_scoring=EXCLUDED.allow_partial_scoring, parent_id=EXCLUDED.parent_id,
			grading_type=EXCLUDED.grading_type, category=EXCLUDED.category, difficulty=EXCLUDED.difficulty,
			tags_json=EXCLUDED.tags_json, status=EXCLUDED.status, params_json=EXCLUDED.params_json`,
		q.ID, q.TenantID, string(q.Type), q.Text, q.Marks, q.AllowPartialScoring, q.ParentID, string(q.GradingType),
		q.Category, q.Difficulty, string(tags), string(q.Status), string(params), q.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("put question: %w", err)
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM question_options WHERE question_id=$1`, q.ID); err != nil {
		return fmt.Errorf("clear options: %w", err)
	}
	for i, o := range q.Options {
		ord := o.Ordering
		if ord == 0 {
			ord = i + 1
		}
		_, err := s.q.ExecContext(ctx, `INSERT INTO question_options
			(id,question_id,text,is_correct,marks,blank_index,case_sensitive,match_with,ordering)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			o.ID, q.ID, o.Text, o.IsCorrect, o.Marks, o.BlankIndex, o.CaseSensitive, o.MatchWith, ord)
		if err != nil {
			return fmt.Errorf("put option %s: %w", o.ID, err)
		}
	}
	return nil
}

func (s *SQLStore) attachOptions(ctx context.Context, qs []Question) ([]Question, error) {
	if len(qs) == 0 {
		return qs, nil
	}
	args := make([]any, len(qs))
	idx := make(map[string]int, len(qs))
	for i, q := range qs {
		args[i] = q.ID
		idx[q.ID] = i
	}
	rows, err := s.q.QueryContext(ctx, `SELECT id,question_id,text,is_correct,marks,blank_index,case_sensitive,match_with,ordering
		FROM question_options WHERE question_id IN (`+placeholders(1, len(qs))+`) ORDER BY question_id, ordering, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect, &o.Marks, &o.BlankIndex,
			&o.CaseSensitive, &o.MatchWith, &o.Ordering); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		if i, ok := idx[o.QuestionID]; ok {
			qs[i].Options = append(qs[i].Options, o)
		}
	}
	return qs, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanQuestion(r scanner) (Question, error) {
	var (
		q              Question
		tags, params   string
		created        int64
		qType, qStatus string
		grading        string
	)
	if err := r.Scan(&q.ID, &q.TenantID, &qType, &q.Text, &q.Marks, &q.AllowPartialScoring, &q.ParentID,
		&grading, &q.Category, &q.Difficulty, &tags, &qStatus, &params, &created); err != nil {
		return Question{}, fmt.Errorf("scan question: %w", err)
	}
	q.Type = QuestionType(qType)
	q.Status = QuestionStatus(qStatus)
	q.GradingType = GradingType(grading)
	_ = json.Unmarshal([]byte(tags), &q.Tags)
	_ = json.Unmarshal([]byte(params), &q.Params)
	q.CreatedAt = time.Unix(created, 0).UTC()
	return q, nil
}

func scanQuestions(rows *sql.Rows) (map[string]Question, error) {
	defer rows.Close()
	out := map[string]Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out[q.ID] = q
	}
	return out, rows.Err()
}

// ---- rules ----

func (s *SQLStore) ListActiveRules(ctx context.Context, testID string) ([]Rule, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id,test_id,section_id,number_of_questions,pool_size,
			selection_strategy,selection_mode,criteria_json,question_ids_json,priority,is_active
		FROM rules WHERE test_id=$1 AND is_active=$2 ORDER BY priority DESC, id`, testID, true)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()
	var out []Rule
	for rows.Next() {
		var (
			r                 Rule
			strategy, mode    string
			criteria, qidJSON string
		)
		if err := rows.Scan(&r.ID, &r.TestID, &r.SectionID, &r.NumberOfQuestions, &r.PoolSize,
			&strategy, &mode, &criteria, &qidJSON, &r.Priority, &r.IsActive); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r.SelectionStrategy = SelectionStrategy(strategy)
		r.SelectionMode = SelectionMode(mode)
		if err := json.Unmarshal([]byte(criteria), &r.Criteria); err != nil {
			return nil, fmt.Errorf("rule %s criteria: %w", r.ID, err)
		}
		_ = json.Unmarshal([]byte(qidJSON), &r.QuestionIDs)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutRule(ctx context.Context, r Rule) error {
	criteria, err := json.Marshal(r.Criteria)
	if err != nil {
		return fmt.Errorf("rule criteria: %w", err)
	}
	qids, _ := json.Marshal(r.QuestionIDs)
	_, err = s.q.ExecContext(ctx, `INSERT INTO rules (id,test_id,section_id,number_of_questions,pool_size,
			selection_strategy,selection_mode,criteria_json,question_ids_json,priority,is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET section_id=EXCLUDED.section_id,
			number_of_questions=EXCLUDED.number_of_questions, pool_size=EXCLUDED.pool_size,
			selection_strategy=EXCLUDED.selection_strategy, selection_mode=EXCLUDED.selection_mode,
			criteria_json=EXCLUDED.criteria_json, question_ids_json=EXCLUDED.question_ids_json,
			priority=EXCLUDED.priority, is_active=EXCLUDED.is_active`,
		r.ID, r.TestID, r.SectionID, r.NumberOfQuestions, r.PoolSize, string(r.SelectionStrategy),
		string(r.SelectionMode), string(criteria), string(qids), r.Priority, r.IsActive)
	if err != nil {
		return fmt.Errorf("put rule: %w", err)
	}
	return nil
}

// ---- attempts ----

const attemptColumns = `id,tenant_id,org_id,user_id,test_id,seq,resolved_test_id,status,review_status,score,
	result,current_position,time_spent_sec,started_at,submitted_at,reviewed_by,reviewed_at,review_remarks`

func scanAttempt(r scanner) (Attempt, error) {
	var (
		a                     Attempt
		status, review        string
		result                sql.NullString
		started               int64
		submitted, reviewedAt sql.NullInt64
	)
	if err := r.Scan(&a.ID, &a.TenantID, &a.OrgID, &a.UserID, &a.TestID, &a.Seq, &a.ResolvedTestID, &status,
		&review, &a.Score, &result, &a.CurrentPosition, &a.TimeSpentSec, &started, &submitted,
		&a.ReviewedBy, &reviewedAt, &a.ReviewRemarks); err != nil {
		return Attempt{}, err
	}
	a.Status = AttemptStatus(status)
	a.ReviewStatus = ReviewStatus(review)
	if result.Valid {
		res := Result(result.String)
		a.Result = &res
	}
	a.StartedAt = time.Unix(started, 0).UTC()
	a.SubmittedAt = fromUnixNull(submitted)
	a.ReviewedAt = fromUnixNull(reviewedAt)
	return a, nil
}

func (s *SQLStore) CountAttempts(ctx context.Context, testID, userID string) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM attempts WHERE test_id=$1 AND user_id=$2`,
		testID, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, testID, userID string) ([]Attempt, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+attemptColumns+` FROM attempts
		WHERE test_id=$1 AND user_id=$2 ORDER BY seq`, testID, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()
	var out []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateAttempt(ctx context.Context, a Attempt) error {
	_, err := s.q.ExecContext(ctx, `INSERT INTO attempts (`+attemptColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		a.ID, a.TenantID, a.OrgID, a.UserID, a.TestID, a.Seq, a.ResolvedTestID, string(a.Status),
		string(a.ReviewStatus), a.Score, resultNull(a.Result), a.CurrentPosition, a.TimeSpentSec,
		a.StartedAt.Unix(), toUnixNull(a.SubmittedAt), a.ReviewedBy, toUnixNull(a.ReviewedAt), a.ReviewRemarks)
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	return s.getAttempt(ctx, id, "")
}

func (s *SQLStore) LockAttempt(ctx context.Context, id string) (Attempt, error) {
	if s.driver == "postgres" {
		return s.getAttempt(ctx, id, " FOR UPDATE")
	}
	return s.getAttempt(ctx, id, "")
}

func (s *SQLStore) getAttempt(ctx context.Context, id, suffix string) (Attempt, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+attemptColumns+` FROM attempts WHERE id=$1`+suffix, id)
	a, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, NotFoundf("attempt %s", id)
		}
		return Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	return a, nil
}

func (s *SQLStore) UpdateAttempt(ctx context.Context, a Attempt) error {
	res, err := s.q.ExecContext(ctx, `UPDATE attempts SET resolved_test_id=$1, status=$2, review_status=$3,
			score=$4, result=$5, current_position=$6, time_spent_sec=$7, submitted_at=$8,
			reviewed_by=$9, reviewed_at=$10, review_remarks=$11
		WHERE id=$12`,
		a.ResolvedTestID, string(a.Status), string(a.ReviewStatus), a.Score, resultNull(a.Result),
		a.CurrentPosition, a.TimeSpentSec, toUnixNull(a.SubmittedAt), a.ReviewedBy, toUnixNull(a.ReviewedAt),
		a.ReviewRemarks, a.ID)
	if err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NotFoundf("attempt %s", a.ID)
	}
	return nil
}

// ---- answers ----

func (s *SQLStore) UpsertAnswer(ctx context.Context, ua UserAnswer) error {
	if ua.UpdatedAt.IsZero() {
		ua.UpdatedAt = time.Now()
	}
	_, err := s.q.ExecContext(ctx, `INSERT INTO user_answers
			(attempt_id,question_id,payload,score,review_status,reviewer_id,remarks,reviewed_at,time_spent_sec,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (attempt_id,question_id) DO UPDATE SET payload=EXCLUDED.payload, score=EXCLUDED.score,
			review_status=EXCLUDED.review_status, reviewer_id=EXCLUDED.reviewer_id, remarks=EXCLUDED.remarks,
			reviewed_at=EXCLUDED.reviewed_at, time_spent_sec=EXCLUDED.time_spent_sec, updated_at=EXCLUDED.updated_at`,
		ua.AttemptID, ua.QuestionID, string(ua.Payload), floatNull(ua.Score), string(ua.ReviewStatus),
		ua.ReviewerID, ua.Remarks, toUnixNull(ua.ReviewedAt), ua.TimeSpentSec, ua.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}

func (s *SQLStore) ListAnswers(ctx context.Context, attemptID string) ([]UserAnswer, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT attempt_id,question_id,payload,score,review_status,reviewer_id,
			remarks,reviewed_at,time_spent_sec,updated_at
		FROM user_answers WHERE attempt_id=$1 ORDER BY question_id`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()
	var out []UserAnswer
	for rows.Next() {
		var (
			ua         UserAnswer
			payload    string
			score      sql.NullFloat64
			review     string
			reviewedAt sql.NullInt64
			updated    int64
		)
		if err := rows.Scan(&ua.AttemptID, &ua.QuestionID, &payload, &score, &review, &ua.ReviewerID,
			&ua.Remarks, &reviewedAt, &ua.TimeSpentSec, &updated); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		ua.Payload = json.RawMessage(payload)
		if score.Valid {
			v := score.Float64
			ua.Score = &v
		}
		ua.ReviewStatus = ReviewStatus(review)
		ua.ReviewedAt = fromUnixNull(reviewedAt)
		ua.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, ua)
	}
	return out, rows.Err()
}

// ---- helpers ----

func placeholders(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "$%d", start+i)
	}
	return b.String()
}

func toUnixNull(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func fromUnixNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtrNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func floatNull(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func resultNull(r *Result) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*r), Valid: true}
}
