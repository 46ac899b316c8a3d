package handler

import (
	"context"
	"net/http"

	"github.com/vkmflowers/backend/internal/domain/identity"
	"github.com/vkmflowers/backend/pkg/httpmiddleware"
)

type actorKey struct{}

// WithActor stores the caller identity in the context. Exported for tests.
func WithActor(ctx context.Context, a identity.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom extracts the caller identity from the context.
func ActorFrom(ctx context.Context) (identity.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(identity.Actor)
	return a, ok
}

// Identity returns a middleware that resolves the caller from the trusted
// gateway headers X-User-ID and X-User-Role. The gateway has already
// authenticated the caller; the core only reads the result. Requests without
// the headers pass through anonymously and are rejected by requireActor on
// mutating routes.
func Identity() httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}
			role := identity.RoleCustomer
			if r.Header.Get("X-User-Role") == string(identity.RoleAdmin) {
				role = identity.RoleAdmin
			}
			ctx := WithActor(r.Context(), identity.Actor{UserID: userID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireActor fetches the caller identity or writes a 401 and reports
// failure.
func requireActor(w http.ResponseWriter, r *http.Request) (identity.Actor, bool) {
	a, ok := ActorFrom(r.Context())
	if !ok {
		respondJSON(r.Context(), w, http.StatusUnauthorized, errorBody{Error: "authentication required"})
	}
	return a, ok
}
