// Package handlers exposes the marketplace use cases as JSON over HTTP.
// Authorization happens in middleware; handlers read the caller from the
// request context and hand it to the services.
package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mycoll/marketplace/auth"
	"github.com/mycoll/marketplace/gate"
	"github.com/mycoll/marketplace/httpx"
	"github.com/mycoll/marketplace/internal/apperr"
	"github.com/mycoll/marketplace/internal/logging"
)

// fail writes err, logging it first when it is not a classified error.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		logging.FromContext(r.Context()).Error("request_failed", zap.Error(err))
	}
	httpx.WriteError(w, err)
}

// actor returns the caller as authorized by the gate middleware.
func actor(r *http.Request) gate.Actor {
	if a, ok := gate.ActorFromContext(r.Context()); ok {
		return a
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	return gate.Actor{UserID: uid}
}

func userID(r *http.Request) uint {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}

// Health answers liveness probes.
func Health(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
