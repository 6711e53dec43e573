package session

import (
	"context"

	"github.com/MrSnakeDoc/gieok/internal/identity"
)

type ctxKey struct{}

func WithSession(ctx context.Context, s identity.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session resolved by the middleware, if any.
func FromContext(ctx context.Context) (identity.Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(identity.Session)
	return s, ok && s.Valid
}
