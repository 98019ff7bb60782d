package handler

import (
	"net/http"
	"strings"

	"plume/internal/config"
	"plume/internal/domain/repositories"
)

// IdempotencyHeader names the client-chosen key of a mutating request.
const IdempotencyHeader = "Idempotency-Key"

// claimRequest holds the request's Idempotency-Key until release is called.
// A repeat of a request still in flight answers 409. Requests without the
// header are not guarded.
func claimRequest(w http.ResponseWriter, r *http.Request, guard repositories.InFlightGuard, userID string) (func(), bool) {
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key == "" || guard == nil {
		return func() {}, true
	}

	release, err := guard.Acquire(r.Context(), userID+":"+r.Method+":"+r.URL.Path+":"+key, config.InFlightTTL)
	if err != nil {
		handleError(w, err)
		return nil, false
	}
	return release, true
}
