package selection

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-assess/internal/cache"
	"github.com/mind-engage/mindengage-assess/internal/exam"
)

// QuestionSource looks up the published questions of a tenant that match
// criteria, in catalog order. Reads go through the caller's unit of work.
type QuestionSource interface {
	Eligible(ctx context.Context, tx exam.Tx, tenantID string, c exam.Criteria) ([]exam.Question, error)
}

// CatalogSource filters the live catalog.
type CatalogSource struct{}

func (CatalogSource) Eligible(ctx context.Context, tx exam.Tx, tenantID string, c exam.Criteria) ([]exam.Question, error) {
	all, err := tx.ListPublishedQuestions(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	out := make([]exam.Question, 0, len(all))
	for _, q := range all {
		if Matches(q, c) {
			out = append(out, q)
		}
	}
	return out, nil
}

// CachedSource memoizes another source per tenant and criteria shape.
// Catalog writers must call InvalidateTenant after changing questions.
type CachedSource struct {
	next  QuestionSource
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedSource(next QuestionSource, c cache.Cache, ttl time.Duration) *CachedSource {
	return &CachedSource{next: next, cache: c, ttl: ttl}
}

func (s *CachedSource) Eligible(ctx context.Context, tx exam.Tx, tenantID string, c exam.Criteria) ([]exam.Question, error) {
	key, err := catalogKey(tenantID, c)
	if err != nil {
		return s.next.Eligible(ctx, tx, tenantID, c)
	}
	return cache.GetOrLoad(ctx, s.cache, key, s.ttl, func() ([]exam.Question, error) {
		return s.next.Eligible(ctx, tx, tenantID, c)
	})
}

// InvalidateTenant drops every cached lookup for the tenant.
func (s *CachedSource) InvalidateTenant(ctx context.Context, tenantID string) error {
	return s.cache.InvalidatePattern(ctx, tenantPrefix(tenantID)+"*")
}

func tenantPrefix(tenantID string) string { return "catalog:" + tenantID + ":" }

func catalogKey(tenantID string, c exam.Criteria) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(b)
	return tenantPrefix(tenantID) + hex.EncodeToString(sum[:]), nil
}
