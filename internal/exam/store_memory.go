package exam

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"sync"
)

type memoryState struct {
	tests     map[string]Test
	sections  map[string][]Section      // testID -> sections
	links     map[string][]TestQuestion // testID -> links
	questions map[string]Question
	rules     map[string][]Rule               // testID -> rules
	attempts  map[string]Attempt
	answers   map[string]map[string]UserAnswer // attemptID -> questionID -> answer
}

func newMemoryState() *memoryState {
	return &memoryState{
		tests:     map[string]Test{},
		sections:  map[string][]Section{},
		links:     map[string][]TestQuestion{},
		questions: map[string]Question{},
		rules:     map[string][]Rule{},
		attempts:  map[string]Attempt{},
		answers:   map[string]map[string]UserAnswer{},
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for k, v := range s.tests {
		c.tests[k] = v
	}
	for k, v := range s.sections {
		c.sections[k] = slices.Clone(v)
	}
	for k, v := range s.links {
		c.links[k] = slices.Clone(v)
	}
	for k, v := range s.questions {
		c.questions[k] = v
	}
	for k, v := range s.rules {
		c.rules[k] = slices.Clone(v)
	}
	for k, v := range s.attempts {
		c.attempts[k] = v
	}
	for k, m := range s.answers {
		cm := make(map[string]UserAnswer, len(m))
		for q, a := range m {
			cm[q] = a
		}
		c.answers[k] = cm
	}
	return c
}

// MemoryStore keeps everything in maps. Units of work run one at a time
// against a private copy of the state, which replaces the shared state on
// commit.
type MemoryStore struct {
	txMu sync.Mutex // serializes units of work
	mu   sync.RWMutex
	st   *memoryState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{st: newMemoryState()}
}

func (m *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	work := m.st.clone()
	m.mu.RUnlock()

	if err := fn(&memoryTx{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.st = work
	m.mu.Unlock()
	return nil
}

// read runs fn against the committed state.
func (m *MemoryStore) read() (*memoryTx, func()) {
	m.mu.RLock()
	return &memoryTx{st: m.st}, m.mu.RUnlock
}

// write applies a single change as its own unit of work.
func (m *MemoryStore) write(ctx context.Context, fn func(tx *memoryTx) error) error {
	return m.WithTx(ctx, func(tx Tx) error { return fn(tx.(*memoryTx)) })
}

func (m *MemoryStore) GetTest(ctx context.Context, id string) (Test, error) {
	tx, done := m.read()
	defer done()
	return tx.GetTest(ctx, id)
}

func (m *MemoryStore) PutTest(ctx context.Context, t Test) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.PutTest(ctx, t) })
}

func (m *MemoryStore) ListSections(ctx context.Context, testID string) ([]Section, error) {
	tx, done := m.read()
	defer done()
	return tx.ListSections(ctx, testID)
}

func (m *MemoryStore) PutSection(ctx context.Context, s Section) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.PutSection(ctx, s) })
}

func (m *MemoryStore) ListTestQuestions(ctx context.Context, testID string) ([]TestQuestion, error) {
	tx, done := m.read()
	defer done()
	return tx.ListTestQuestions(ctx, testID)
}

func (m *MemoryStore) AddTestQuestions(ctx context.Context, links []TestQuestion) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.AddTestQuestions(ctx, links) })
}

func (m *MemoryStore) GetQuestions(ctx context.Context, ids []string) ([]Question, error) {
	tx, done := m.read()
	defer done()
	return tx.GetQuestions(ctx, ids)
}

func (m *MemoryStore) ListPublishedQuestions(ctx context.Context, tenantID string) ([]Question, error) {
	tx, done := m.read()
	defer done()
	return tx.ListPublishedQuestions(ctx, tenantID)
}

func (m *MemoryStore) PutQuestion(ctx context.Context, q Question) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.PutQuestion(ctx, q) })
}

func (m *MemoryStore) ListActiveRules(ctx context.Context, testID string) ([]Rule, error) {
	tx, done := m.read()
	defer done()
	return tx.ListActiveRules(ctx, testID)
}

func (m *MemoryStore) PutRule(ctx context.Context, r Rule) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.PutRule(ctx, r) })
}

func (m *MemoryStore) CountAttempts(ctx context.Context, testID, userID string) (int, error) {
	tx, done := m.read()
	defer done()
	return tx.CountAttempts(ctx, testID, userID)
}

func (m *MemoryStore) ListAttempts(ctx context.Context, testID, userID string) ([]Attempt, error) {
	tx, done := m.read()
	defer done()
	return tx.ListAttempts(ctx, testID, userID)
}

func (m *MemoryStore) CreateAttempt(ctx context.Context, a Attempt) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.CreateAttempt(ctx, a) })
}

func (m *MemoryStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	tx, done := m.read()
	defer done()
	return tx.GetAttempt(ctx, id)
}

func (m *MemoryStore) LockAttempt(ctx context.Context, id string) (Attempt, error) {
	return m.GetAttempt(ctx, id)
}

func (m *MemoryStore) UpdateAttempt(ctx context.Context, a Attempt) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.UpdateAttempt(ctx, a) })
}

func (m *MemoryStore) UpsertAnswer(ctx context.Context, ua UserAnswer) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.UpsertAnswer(ctx, ua) })
}

func (m *MemoryStore) ListAnswers(ctx context.Context, attemptID string) ([]UserAnswer, error) {
	tx, done := m.read()
	defer done()
	return tx.ListAnswers(ctx, attemptID)
}

// memoryTx operates on one memoryState without locking; MemoryStore owns the locks.
type memoryTx struct{ st *memoryState }

func (t *memoryTx) GetTest(_ context.Context, id string) (Test, error) {
	e, ok := t.st.tests[id]
	if !ok {
		return Test{}, NotFoundf("test %s", id)
	}
	return e, nil
}

func (t *memoryTx) PutTest(_ context.Context, e Test) error {
	t.st.tests[e.ID] = e
	return nil
}

func (t *memoryTx) ListSections(_ context.Context, testID string) ([]Section, error) {
	out := slices.Clone(t.st.sections[testID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ordering < out[j].Ordering })
	return out, nil
}

func (t *memoryTx) PutSection(_ context.Context, s Section) error {
	list := t.st.sections[s.TestID]
	for i := range list {
		if list[i].ID == s.ID {
			list[i] = s
			return nil
		}
	}
	t.st.sections[s.TestID] = append(list, s)
	return nil
}

func (t *memoryTx) ListTestQuestions(_ context.Context, testID string) ([]TestQuestion, error) {
	out := slices.Clone(t.st.links[testID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ordering < out[j].Ordering })
	return out, nil
}

func (t *memoryTx) AddTestQuestions(_ context.Context, links []TestQuestion) error {
	for _, l := range links {
		for _, cur := range t.st.links[l.TestID] {
			if cur.QuestionID == l.QuestionID {
				return Conflictf("question %s already linked to test %s", l.QuestionID, l.TestID)
			}
		}
		t.st.links[l.TestID] = append(t.st.links[l.TestID], l)
	}
	return nil
}

func (t *memoryTx) GetQuestions(_ context.Context, ids []string) ([]Question, error) {
	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := t.st.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (t *memoryTx) ListPublishedQuestions(_ context.Context, tenantID string) ([]Question, error) {
	out := make([]Question, 0, len(t.st.questions))
	for _, q := range t.st.questions {
		if q.TenantID == tenantID && q.Status == QuestionPublished {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memoryTx) PutQuestion(_ context.Context, q Question) error {
	q.Options = slices.Clone(q.Options)
	for i := range q.Options {
		q.Options[i].QuestionID = q.ID
	}
	t.st.questions[q.ID] = q
	return nil
}

func (t *memoryTx) ListActiveRules(_ context.Context, testID string) ([]Rule, error) {
	out := make([]Rule, 0, len(t.st.rules[testID]))
	for _, r := range t.st.rules[testID] {
		if r.IsActive {
			out = append(out, r)
		}
	}
	SortRules(out)
	return out, nil
}

func (t *memoryTx) PutRule(_ context.Context, r Rule) error {
	list := t.st.rules[r.TestID]
	for i := range list {
		if list[i].ID == r.ID {
			list[i] = r
			return nil
		}
	}
	t.st.rules[r.TestID] = append(list, r)
	return nil
}

func (t *memoryTx) CountAttempts(_ context.Context, testID, userID string) (int, error) {
	n := 0
	for _, a := range t.st.attempts {
		if a.TestID == testID && a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) ListAttempts(_ context.Context, testID, userID string) ([]Attempt, error) {
	var out []Attempt
	for _, a := range t.st.attempts {
		if a.TestID == testID && a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (t *memoryTx) CreateAttempt(_ context.Context, a Attempt) error {
	if _, ok := t.st.attempts[a.ID]; ok {
		return Conflictf("attempt %s exists", a.ID)
	}
	for _, cur := range t.st.attempts {
		if cur.TestID == a.TestID && cur.UserID == a.UserID && cur.Seq == a.Seq {
			return Conflictf("attempt %d for user %s on test %s exists", a.Seq, a.UserID, a.TestID)
		}
	}
	t.st.attempts[a.ID] = a
	return nil
}

func (t *memoryTx) GetAttempt(_ context.Context, id string) (Attempt, error) {
	a, ok := t.st.attempts[id]
	if !ok {
		return Attempt{}, NotFoundf("attempt %s", id)
	}
	return a, nil
}

func (t *memoryTx) LockAttempt(ctx context.Context, id string) (Attempt, error) {
	return t.GetAttempt(ctx, id)
}

func (t *memoryTx) UpdateAttempt(_ context.Context, a Attempt) error {
	if _, ok := t.st.attempts[a.ID]; !ok {
		return NotFoundf("attempt %s", a.ID)
	}
	t.st.attempts[a.ID] = a
	return nil
}

func (t *memoryTx) UpsertAnswer(_ context.Context, ua UserAnswer) error {
	m, ok := t.st.answers[ua.AttemptID]
	if !ok {
		m = map[string]UserAnswer{}
		t.st.answers[ua.AttemptID] = m
	}
	ua.Payload = append(json.RawMessage(nil), ua.Payload...)
	m[ua.QuestionID] = ua
	return nil
}

func (t *memoryTx) ListAnswers(_ context.Context, attemptID string) ([]UserAnswer, error) {
	m := t.st.answers[attemptID]
	out := make([]UserAnswer, 0, len(m))
	for _, a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

// SortRules orders rules by priority desc, then id.
func SortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
}
