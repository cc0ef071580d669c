package security

import "context"

type ctxKey struct{}

// Actor is the authenticated caller attached to a request context.
type Actor struct {
	ID    int32
	Name  string
	Email string
	Staff bool
}

// ActorFromClaims projects verified claims onto an Actor.
func ActorFromClaims(c *UserClaims) Actor {
	name := c.Name
	if name == "" {
		name = c.Email
	}
	return Actor{ID: c.UserID, Name: name, Email: c.Email, Staff: c.IsStaff()}
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// ActorFromContext returns the caller, ok=false for background work such as
// the reconciler.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}

// ActorName is the name recorded in audit entries.
func ActorName(ctx context.Context) string {
	if a, ok := ActorFromContext(ctx); ok && a.Name != "" {
		return a.Name
	}
	return "system"
}
