package tenant

import (
	"context"

	"github.com/google/uuid"
)

type actorContextKey struct{}

// WithActor returns a context carrying the id of the platform user
// performing the current request. The transport layer sets it after
// authentication; services read it for audit stamping.
func WithActor(ctx context.Context, actorID uuid.UUID) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actorID)
}

// ActorResolver resolves the id of the user performing the action.
type ActorResolver interface {
	CurrentActor(ctx context.Context) uuid.UUID
}

// ContextActorResolver reads the actor from the request context,
// falling back to the nil UUID for unattributed (system) calls.
type ContextActorResolver struct{}

func (ContextActorResolver) CurrentActor(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(actorContextKey{}).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// StaticActorResolver always returns a fixed actor id. Used by tests and
// by background processes acting as a system account.
type StaticActorResolver struct {
	ActorID uuid.UUID
}

func (r StaticActorResolver) CurrentActor(ctx context.Context) uuid.UUID {
	return r.ActorID
}
