package selection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

// RuleSetResolver turns a rule-based test into a GENERATED test holding the
// concrete question set for one attempt.
type RuleSetResolver struct {
	pool  *PoolResolver
	now   func() time.Time
	newID func() string
}

type ResolverOption func(*RuleSetResolver)

func WithClock(now func() time.Time) ResolverOption {
	return func(r *RuleSetResolver) { r.now = now }
}

func WithIDs(newID func() string) ResolverOption {
	return func(r *RuleSetResolver) { r.newID = newID }
}

func NewRuleSetResolver(pool *PoolResolver, opts ...ResolverOption) *RuleSetResolver {
	r := &RuleSetResolver{pool: pool, now: time.Now, newID: uuid.NewString}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Materialize selects questions for every active rule of parent and writes
// the generated test and its links through tx. Nothing is written unless
// every rule can be satisfied.
func (r *RuleSetResolver) Materialize(ctx context.Context, tx exam.Tx, parent exam.Test) (exam.Test, []exam.TestQuestion, error) {
	if parent.Type != exam.TestRuleBased {
		return exam.Test{}, nil, &exam.ConfigError{Msg: fmt.Sprintf("test %s is not rule based", parent.ID)}
	}
	rules, err := tx.ListActiveRules(ctx, parent.ID)
	if err != nil {
		return exam.Test{}, nil, fmt.Errorf("list rules: %w", err)
	}
	if len(rules) == 0 {
		return exam.Test{}, nil, &exam.ConfigError{Msg: fmt.Sprintf("test %s has no active rules", parent.ID)}
	}

	gen := exam.Test{
		ID:              r.newID(),
		TenantID:        parent.TenantID,
		Title:           parent.Title,
		Type:            exam.TestGenerated,
		Status:          exam.TestPublished,
		Attempts:        1,
		AttemptsGrading: parent.AttemptsGrading,
		PassingMarks:    parent.PassingMarks,
		IsObjective:     parent.IsObjective,
		DurationSec:     parent.DurationSec,
		ParentTestID:    parent.ID,
		CreatedAt:       r.now().UTC(),
	}

	chosen := map[string]struct{}{}
	var links []exam.TestQuestion
	for _, rule := range rules {
		picked, err := r.selectForRule(ctx, tx, parent.TenantID, rule, chosen)
		if err != nil {
			return exam.Test{}, nil, err
		}
		for _, q := range picked {
			chosen[q.ID] = struct{}{}
			gen.TotalMarks += q.Marks
			links = append(links, exam.TestQuestion{
				TestID:     gen.ID,
				QuestionID: q.ID,
				SectionID:  rule.SectionID,
				Ordering:   len(links) + 1,
				RuleID:     rule.ID,
			})
		}
	}

	if err := checkSections(ctx, tx, parent.ID, links); err != nil {
		return exam.Test{}, nil, err
	}

	if err := tx.PutTest(ctx, gen); err != nil {
		return exam.Test{}, nil, fmt.Errorf("create generated test: %w", err)
	}
	if err := tx.AddTestQuestions(ctx, links); err != nil {
		return exam.Test{}, nil, fmt.Errorf("link generated questions: %w", err)
	}
	return gen, links, nil
}

func (r *RuleSetResolver) selectForRule(ctx context.Context, tx exam.Tx, tenantID string, rule exam.Rule, chosen map[string]struct{}) ([]exam.Question, error) {
	if rule.NumberOfQuestions <= 0 {
		return nil, &exam.ConfigError{Msg: fmt.Sprintf("rule %s selects no questions", rule.ID)}
	}
	req := Request{
		TenantID: tenantID,
		RuleID:   rule.ID,
		Criteria: rule.Criteria,
		Count:    rule.NumberOfQuestions,
		Strategy: rule.SelectionStrategy,
		PoolSize: rule.PoolSize,
		Exclude:  chosen,
	}
	switch rule.SelectionMode {
	case exam.ModePreselected:
		pool, err := preselectedPool(ctx, tx, tenantID, rule.QuestionIDs)
		if err != nil {
			return nil, err
		}
		return r.SelectFromRule(without(pool, chosen), req)
	case exam.ModeDynamic, "":
		return r.pool.Resolve(ctx, tx, req)
	}
	return nil, &exam.ConfigError{Msg: fmt.Sprintf("rule %s: unknown selection mode %q", rule.ID, rule.SelectionMode)}
}

// SelectFromRule applies a rule's strategy to its fixed candidate list.
func (r *RuleSetResolver) SelectFromRule(pool []exam.Question, req Request) ([]exam.Question, error) {
	return r.pool.Select(pool, req)
}

// preselectedPool loads the rule's fixed list in list order, dropping ids
// that are unknown, unpublished, duplicated or from another tenant.
func preselectedPool(ctx context.Context, tx exam.Tx, tenantID string, ids []string) ([]exam.Question, error) {
	qs, err := tx.GetQuestions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load preselected questions: %w", err)
	}
	byID := make(map[string]exam.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}
	out := make([]exam.Question, 0, len(ids))
	seen := map[string]struct{}{}
	for _, id := range ids {
		q, ok := byID[id]
		if !ok || q.Status != exam.QuestionPublished || q.TenantID != tenantID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, q)
	}
	return out, nil
}

func checkSections(ctx context.Context, tx exam.Tx, testID string, links []exam.TestQuestion) error {
	sections, err := tx.ListSections(ctx, testID)
	if err != nil {
		return fmt.Errorf("list sections: %w", err)
	}
	counts := map[string]int{}
	for _, l := range links {
		counts[l.SectionID]++
	}
	for _, s := range sections {
		n := counts[s.ID]
		if s.MinQuestions != nil && n < *s.MinQuestions {
			return &exam.ConfigError{Msg: fmt.Sprintf("section %s has %d questions, needs at least %d", s.ID, n, *s.MinQuestions)}
		}
		if s.MaxQuestions != nil && n > *s.MaxQuestions {
			return &exam.ConfigError{Msg: fmt.Sprintf("section %s has %d questions, allows at most %d", s.ID, n, *s.MaxQuestions)}
		}
	}
	return nil
}
