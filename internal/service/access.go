package service

import (
	"context"

	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/security"
)

// requireStaff fails for residents. Calls without an actor come from
// background jobs and are allowed.
func requireStaff(ctx context.Context) (int32, error) {
	a, ok := security.ActorFromContext(ctx)
	if !ok {
		return 0, nil
	}
	if !a.Staff {
		return 0, domain.ErrForbidden
	}
	return a.ID, nil
}

// canSee reports whether the caller may read data owned by ownerID.
func canSee(ctx context.Context, ownerID int32) bool {
	a, ok := security.ActorFromContext(ctx)
	return !ok || a.Staff || a.ID == ownerID
}
