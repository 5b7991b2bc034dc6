package policy

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mycoll/marketplace/auth"
	"github.com/mycoll/marketplace/gate"
	"github.com/mycoll/marketplace/httpx"
	"github.com/mycoll/marketplace/internal/logging"
)

// AuthGate is the central authorization point: the rule table evaluated over
// a cached database resolver.
type AuthGate struct {
	Gate  *gate.Gate
	Cache *gate.CachedResolver
}

// NewAuthGate caches principals for cacheTTL; role and account state changes
// must go through Invalidate.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver(NewDBResolver(db), cacheTTL)
	return &AuthGate{
		Gate:  gate.New(cached, Rules()),
		Cache: cached,
	}
}

// Invalidate drops the cached principal of userID.
func (ag *AuthGate) Invalidate(userID uint) {
	ag.Cache.Invalidate(userID)
}

// Authorize checks perm for the user in ctx and returns the caller as the
// services see it.
func (ag *AuthGate) Authorize(ctx context.Context, perm gate.Permission) (gate.Actor, error) {
	userID, _ := auth.UserIDFromContext(ctx)
	p, err := ag.Gate.Authorize(ctx, userID, perm)
	if err != nil {
		return gate.Actor{}, err
	}
	return ag.Gate.Actor(p, perm), nil
}

// Require returns middleware that rejects requests failing perm's rule and
// stores the caller's gate.Actor in the request context for the handler.
// Ownership of individual rows is checked by the services against that Actor.
func (ag *AuthGate) Require(perm gate.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := ag.Authorize(r.Context(), perm)
			if err != nil {
				logging.FromContext(r.Context()).Info("authorization_denied",
					zap.String("permission", string(perm)), zap.Error(err))
				httpx.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(gate.WithActor(r.Context(), actor)))
		})
	}
}
