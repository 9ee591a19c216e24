package auth

import (
	"context"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

type ctxKey string

const ctxKeyClaims ctxKey = "claims"

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, c)
}

func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(ctxKeyClaims).(*Claims)
	return c
}

// ActorFromContext is the caller the domain operations run on behalf of.
// ok is false on unauthenticated requests.
func ActorFromContext(ctx context.Context) (exam.Actor, bool) {
	c := ClaimsFromContext(ctx)
	if c == nil {
		return exam.Actor{}, false
	}
	return exam.Actor{UserID: c.Sub, TenantID: c.TenantID, OrgID: c.OrgID, Role: c.Role}, true
}
