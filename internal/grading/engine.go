package grading

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

var errEmptyPayload = errors.New("empty payload")

// Result is the outcome of grading a single question response.
type Result struct {
	Points      float64  `json:"points"`       // points awarded automatically
	MaxPoints   float64  `json:"max_points"`   // the question's marks
	NeedsManual bool     `json:"needs_manual"` // true if a reviewer supplies the score
	Feedback    []string `json:"feedback,omitempty"`
}

// Strategy grades a single question type. Implementations never fail:
// anything they cannot make sense of earns zero.
type Strategy interface {
	Grade(q exam.Question, opts []exam.Option, ans Answer) Result
}

// Engine options

type Option func(*config)

type config struct {
	Decimals int // rounding applied to awarded points
}

func WithDecimals(n int) Option { return func(c *config) { c.Decimals = n } }

// Engine routes by question type to the correct Strategy.
type Engine struct {
	decimals int
}

func NewEngine(opts ...Option) *Engine {
	cfg := &config{Decimals: 2}
	for _, o := range opts {
		o(cfg)
	}
	return &Engine{decimals: cfg.Decimals}
}

// strategyFor lists every question type; nil means the type is never scored.
func strategyFor(t exam.QuestionType) Strategy {
	switch t {
	case exam.QuestionMCQ, exam.QuestionTrueFalse:
		return singleChoiceStrategy{}
	case exam.QuestionMultipleAnswer:
		return multipleAnswerStrategy{}
	case exam.QuestionFillBlank:
		return fillBlankStrategy{}
	case exam.QuestionMatch:
		return matchStrategy{}
	case exam.QuestionSubjective, exam.QuestionEssay:
		return manualStrategy{}
	case exam.QuestionTextBlock, exam.QuestionSectionBreak:
		return nil
	}
	return nil
}

// Score grades one answer. q may be nil (question no longer exists); opts
// default to q.Options when nil. The result always lies in [0, q.Marks].
func (e *Engine) Score(q *exam.Question, opts []exam.Option, payload json.RawMessage) Result {
	if q == nil {
		return Result{Feedback: []string{"question not found"}}
	}
	res := Result{MaxPoints: math.Max(q.Marks, 0)}
	s := strategyFor(q.Type)
	if s == nil {
		res.Feedback = append(res.Feedback, "question type is not scored")
		return res
	}
	if opts == nil {
		opts = q.Options
	}
	ans, err := ParseAnswer(payload)
	if err != nil {
		if q.Type.Subjective() {
			res.NeedsManual = true
		}
		res.Feedback = append(res.Feedback, "unreadable answer")
		return res
	}
	out := s.Grade(*q, opts, ans)
	out.MaxPoints = res.MaxPoints
	out.Points = e.round(clamp(out.Points, 0, res.MaxPoints))
	return out
}

func (e *Engine) round(v float64) float64 {
	if e.decimals < 0 {
		return v
	}
	p := math.Pow(10, float64(e.decimals))
	return math.Round(v*p) / p
}

// --- Strategies ---

type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(q exam.Question, opts []exam.Option, ans Answer) Result {
	res := Result{}
	if len(ans.SelectedOptionIDs) != 1 {
		res.Feedback = append(res.Feedback, "expected exactly one selection")
		return res
	}
	for _, o := range opts {
		if o.ID == ans.SelectedOptionIDs[0] {
			if o.IsCorrect {
				res.Points = q.Marks
			}
			return res
		}
	}
	res.Feedback = append(res.Feedback, "unknown option")
	return res
}

type multipleAnswerStrategy struct{}

func (multipleAnswerStrategy) Grade(q exam.Question, opts []exam.Option, ans Answer) Result {
	res := Result{}
	correct := map[string]struct{}{}
	for _, o := range opts {
		if o.IsCorrect {
			correct[o.ID] = struct{}{}
		}
	}
	selected := toSet(ans.SelectedOptionIDs)
	if len(correct) == 0 || len(selected) == 0 {
		return res
	}
	if setEqual(correct, selected) {
		res.Points = q.Marks
		return res
	}
	if !q.AllowPartialScoring {
		return res
	}
	hits := 0
	for id := range selected {
		if _, ok := correct[id]; !ok {
			res.Feedback = append(res.Feedback, "incorrect selection")
			return res
		}
		hits++
	}
	res.Points = q.Marks * float64(hits) / float64(len(correct))
	return res
}

type fillBlankStrategy struct{}

func (fillBlankStrategy) Grade(q exam.Question, opts []exam.Option, ans Answer) Result {
	res := Result{}
	accepted := map[int][]exam.Option{}
	for _, o := range opts {
		if o.IsCorrect {
			accepted[o.BlankIndex] = append(accepted[o.BlankIndex], o)
		}
	}
	if len(accepted) == 0 {
		return res
	}
	blanks := make([]int, 0, len(accepted))
	for idx := range accepted {
		blanks = append(blanks, idx)
	}
	sort.Ints(blanks)

	given := map[int]string{}
	for k, text := range ans.SelectedOptionIDs {
		if k < len(blanks) {
			given[blanks[k]] = text
		}
	}
	for _, b := range ans.Blanks {
		given[b.BlankIndex] = b.Answer
	}

	matched := 0
	for _, idx := range blanks {
		text, ok := given[idx]
		if !ok {
			continue
		}
		for _, o := range accepted[idx] {
			if sameText(text, o.Text, o.CaseSensitive) {
				matched++
				break
			}
		}
	}
	switch {
	case matched == len(blanks):
		res.Points = q.Marks
	case q.AllowPartialScoring:
		res.Points = q.Marks * float64(matched) / float64(len(blanks))
	}
	return res
}

type matchStrategy struct{}

func (matchStrategy) Grade(q exam.Question, opts []exam.Option, ans Answer) Result {
	res := Result{}
	correct := map[string]string{}
	for _, o := range opts {
		if o.IsCorrect {
			correct[o.ID] = strings.TrimSpace(o.MatchWith)
		}
	}
	if len(correct) == 0 {
		return res
	}
	seen := map[string]struct{}{}
	matched := 0
	for _, p := range ans.Matches {
		if _, dup := seen[p.OptionID]; dup {
			continue
		}
		seen[p.OptionID] = struct{}{}
		if want, ok := correct[p.OptionID]; ok && want == strings.TrimSpace(p.MatchWith) {
			matched++
		}
	}
	switch {
	case matched == len(correct):
		res.Points = q.Marks
	case q.AllowPartialScoring:
		res.Points = q.Marks * float64(matched) / float64(len(correct))
	}
	return res
}

type manualStrategy struct{}

func (manualStrategy) Grade(exam.Question, []exam.Option, Answer) Result {
	return Result{NeedsManual: true, Feedback: []string{"manual grading required"}}
}

// helpers

func sameText(given, want string, caseSensitive bool) bool {
	given, want = strings.TrimSpace(given), strings.TrimSpace(want)
	if caseSensitive {
		return given == want
	}
	return strings.EqualFold(given, want)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
