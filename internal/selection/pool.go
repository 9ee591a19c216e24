package selection

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

// Request describes one pool lookup.
type Request struct {
	TenantID string
	RuleID   string // reported in InsufficientQuestions errors
	Criteria exam.Criteria
	Count    int
	Strategy exam.SelectionStrategy
	PoolSize int                 // 0 = whole eligible pool
	Exclude  map[string]struct{} // already chosen elsewhere
}

// PoolResolver picks questions from the catalog.
type PoolResolver struct {
	src QuestionSource

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

func NewPoolResolver(src QuestionSource, rnd *rand.Rand) *PoolResolver {
	if src == nil {
		src = CatalogSource{}
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &PoolResolver{src: src, rnd: rnd}
}

// Resolve returns req.Count eligible questions chosen by req.Strategy.
func (p *PoolResolver) Resolve(ctx context.Context, tx exam.Tx, req Request) ([]exam.Question, error) {
	eligible, err := p.src.Eligible(ctx, tx, req.TenantID, req.Criteria)
	if err != nil {
		return nil, err
	}
	return p.Select(without(eligible, req.Exclude), req)
}

// Select applies the pool size cap and the strategy to an already filtered
// pool given in catalog order.
func (p *PoolResolver) Select(pool []exam.Question, req Request) ([]exam.Question, error) {
	if req.PoolSize > 0 && len(pool) > req.PoolSize {
		pool = pool[:req.PoolSize]
	}
	if len(pool) < req.Count {
		return nil, &exam.InsufficientQuestionsError{RuleID: req.RuleID, Requested: req.Count, Available: len(pool)}
	}
	picked := make([]exam.Question, len(pool))
	copy(picked, pool)

	switch req.Strategy {
	case exam.SelectRandom, "":
		p.mu.Lock()
		p.rnd.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
		p.mu.Unlock()
	case exam.SelectSequential:
	case exam.SelectWeighted:
		// coarse: highest marks first, catalog order between equals
		sort.SliceStable(picked, func(i, j int) bool { return picked[i].Marks > picked[j].Marks })
	default:
		return nil, &exam.ConfigError{Msg: fmt.Sprintf("unknown selection strategy %q", req.Strategy)}
	}
	return picked[:req.Count], nil
}

func without(qs []exam.Question, ids map[string]struct{}) []exam.Question {
	if len(ids) == 0 {
		return qs
	}
	out := make([]exam.Question, 0, len(qs))
	for _, q := range qs {
		if _, skip := ids[q.ID]; !skip {
			out = append(out, q)
		}
	}
	return out
}
