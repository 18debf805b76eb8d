package model

import "context"

// AnonymousActor is recorded in audit entries when a request carries no
// actor identity
const AnonymousActor = "anonymous"

type actorKey struct{}

// WithActor returns a context carrying the acting identity recorded in
// audit entries
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the acting identity in ctx, or AnonymousActor
// when none is set
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return AnonymousActor
}
