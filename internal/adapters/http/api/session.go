// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okhandani/highstakes/internal/domain/model"
	"github.com/okhandani/highstakes/internal/domain/session"
)

// SessionDependencies defines the interface for session issuing.
type SessionDependencies interface {
	Session(ctx context.Context, customer model.CustomerID, create bool) (session.Session, bool)
}

// SessionHandler handles session requests.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleGetSession handles GET /{customerID}/session requests. It returns
// the customer's session key, minting a fresh session when none is valid.
func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "customerID")
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	sess, ok := h.deps.Session(r.Context(), model.CustomerID(id), true)
	if !ok {
		writeText(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	writeText(w, http.StatusOK, sess.Key)
}
