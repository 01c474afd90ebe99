package relay

import (
	"net/http"

	"github.com/tjfontaine/mindspark/internal/core/domain"
	"github.com/tjfontaine/mindspark/internal/server"
)

// HandleHistory serves GET /api/history: the caller's most recent entries,
// newest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	identity := server.GetIdentity(r.Context())
	if identity == nil {
		server.WriteError(w, r, domain.ErrAuthentication("no token provided"))
		return
	}

	entries, err := h.store.QueryByIdentity(r.Context(), identity.UID, h.pageSize)
	if err != nil {
		server.WriteError(w, r, domain.ErrServer("couldn't load history").WithCause(err))
		return
	}
	if entries == nil {
		entries = []*domain.HistoryEntry{}
	}
	server.AddLogInt(r.Context(), "entries", len(entries))
	server.WriteJSON(w, http.StatusOK, entries)
}
