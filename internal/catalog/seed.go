// Package catalog loads tests, questions and selection rules from YAML seed
// files into an exam.Store.
package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

// Seed is the file layout. Questions are listed once and linked into plain
// tests by id; rule-based tests carry rules instead of links.
type Seed struct {
	TenantID  string          `yaml:"tenant_id"`
	Questions []exam.Question `yaml:"questions"`
	Tests     []TestSeed      `yaml:"tests"`
}

type TestSeed struct {
	exam.Test `yaml:",inline"`
	Sections  []exam.Section `yaml:"sections"`
	Questions []LinkSeed     `yaml:"questions"`
	Rules     []RuleSeed     `yaml:"rules"`
}

// RuleSeed is active unless is_active: false is given.
type RuleSeed struct {
	exam.Rule `yaml:",inline"`
	Active    *bool `yaml:"is_active"`
}

type LinkSeed struct {
	QuestionID string `yaml:"question_id"`
	SectionID  string `yaml:"section_id"`
}

type Stats struct {
	Questions int
	Tests     int
	Links     int
	Rules     int
}

// Invalidator drops cached catalog lookups of a tenant.
type Invalidator interface {
	InvalidateTenant(ctx context.Context, tenantID string) error
}

type Importer struct {
	store exam.Store
	inval Invalidator
	log   logrus.FieldLogger
	now   func() time.Time
}

type Option func(*Importer)

func WithInvalidator(i Invalidator) Option   { return func(im *Importer) { im.inval = i } }
func WithLogger(l logrus.FieldLogger) Option { return func(im *Importer) { im.log = l } }
func WithClock(now func() time.Time) Option  { return func(im *Importer) { im.now = now } }

func NewImporter(store exam.Store, opts ...Option) *Importer {
	im := &Importer{store: store, log: logrus.StandardLogger(), now: time.Now}
	for _, o := range opts {
		o(im)
	}
	return im
}

func (im *Importer) ImportFile(ctx context.Context, path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer f.Close()
	return im.Import(ctx, f)
}

// Import decodes one seed document and writes it in a single unit of work.
// Re-importing the same file updates rows in place.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Stats, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return Stats{}, fmt.Errorf("decode seed: %w", err)
	}
	if seed.TenantID == "" {
		return Stats{}, exam.Invalid("tenant_required", "", "seed has no tenant_id")
	}
	if err := check(seed); err != nil {
		return Stats{}, err
	}

	var st Stats
	base := im.now().UTC()
	err := im.store.WithTx(ctx, func(tx exam.Tx) error {
		marks := make(map[string]float64, len(seed.Questions))
		for i, q := range seed.Questions {
			q.TenantID = seed.TenantID
			if q.Status == "" {
				q.Status = exam.QuestionPublished
			}
			if q.CreatedAt.IsZero() {
				// file order is catalog order
				q.CreatedAt = base.Add(time.Duration(i) * time.Second)
			}
			if err := tx.PutQuestion(ctx, q); err != nil {
				return fmt.Errorf("put question %s: %w", q.ID, err)
			}
			marks[q.ID] = q.Marks
			st.Questions++
		}

		for _, ts := range seed.Tests {
			t := ts.Test
			t.TenantID = seed.TenantID
			if t.Type == "" {
				t.Type = exam.TestPlain
				if len(ts.Rules) > 0 {
					t.Type = exam.TestRuleBased
				}
			}
			if t.Status == "" {
				t.Status = exam.TestPublished
			}
			if t.CreatedAt.IsZero() {
				t.CreatedAt = base
			}
			if t.TotalMarks == 0 {
				for _, l := range ts.Questions {
					t.TotalMarks += marks[l.QuestionID]
				}
			}
			if err := tx.PutTest(ctx, t); err != nil {
				return fmt.Errorf("put test %s: %w", t.ID, err)
			}
			st.Tests++

			for i, sec := range ts.Sections {
				sec.TestID = t.ID
				if sec.Ordering == 0 {
					sec.Ordering = i + 1
				}
				if err := tx.PutSection(ctx, sec); err != nil {
					return fmt.Errorf("put section %s: %w", sec.ID, err)
				}
			}

			links, err := newLinks(ctx, tx, t.ID, ts.Questions)
			if err != nil {
				return err
			}
			if len(links) > 0 {
				if err := tx.AddTestQuestions(ctx, links); err != nil {
					return fmt.Errorf("link questions to %s: %w", t.ID, err)
				}
			}
			st.Links += len(links)

			for _, rs := range ts.Rules {
				rule := rs.Rule
				rule.TestID = t.ID
				rule.IsActive = rs.Active == nil || *rs.Active
				if rule.SelectionMode == "" {
					rule.SelectionMode = exam.ModeDynamic
				}
				if rule.SelectionStrategy == "" {
					rule.SelectionStrategy = exam.SelectRandom
				}
				if err := tx.PutRule(ctx, rule); err != nil {
					return fmt.Errorf("put rule %s: %w", rule.ID, err)
				}
				st.Rules++
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	if im.inval != nil {
		if err := im.inval.InvalidateTenant(ctx, seed.TenantID); err != nil {
			im.log.WithError(err).WithField("tenant_id", seed.TenantID).Warn("catalog cache invalidation failed")
		}
	}
	im.log.WithFields(logrus.Fields{
		"tenant_id": seed.TenantID, "questions": st.Questions, "tests": st.Tests, "rules": st.Rules,
	}).Info("catalog imported")
	return st, nil
}

// newLinks numbers the links in file order and skips those already present.
func newLinks(ctx context.Context, tx exam.Tx, testID string, seeds []LinkSeed) ([]exam.TestQuestion, error) {
	existing, err := tx.ListTestQuestions(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("list links of %s: %w", testID, err)
	}
	have := make(map[string]struct{}, len(existing))
	for _, l := range existing {
		have[l.QuestionID] = struct{}{}
	}
	var out []exam.TestQuestion
	for i, l := range seeds {
		if _, ok := have[l.QuestionID]; ok {
			continue
		}
		out = append(out, exam.TestQuestion{
			TestID: testID, QuestionID: l.QuestionID, SectionID: l.SectionID, Ordering: i + 1,
		})
	}
	return out, nil
}

func check(seed Seed) error {
	ids := make(map[string]struct{}, len(seed.Questions))
	for _, q := range seed.Questions {
		if q.ID == "" {
			return exam.Invalid("question_id", "", "question without id")
		}
		if _, dup := ids[q.ID]; dup {
			return exam.Invalid("duplicate_question", q.ID, "question listed twice")
		}
		if !q.Type.IsValid() {
			return exam.Invalid("question_type", q.ID, fmt.Sprintf("unknown type %q", q.Type))
		}
		if q.Marks < 0 {
			return exam.Invalid("marks", q.ID, "marks must not be negative")
		}
		ids[q.ID] = struct{}{}
	}
	for _, t := range seed.Tests {
		if t.ID == "" {
			return exam.Invalid("test_id", "", "test without id")
		}
		for _, l := range t.Questions {
			if _, ok := ids[l.QuestionID]; !ok {
				return exam.Invalid("unknown_question", l.QuestionID, "test "+t.ID+" links a question the seed does not define")
			}
		}
		for _, r := range t.Rules {
			if r.ID == "" || r.NumberOfQuestions <= 0 {
				return exam.Invalid("rule", "", "test "+t.ID+" has a rule without id or question count")
			}
		}
	}
	return nil
}
