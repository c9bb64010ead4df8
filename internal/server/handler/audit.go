package handler

import (
	"log/slog"
	"net/http"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// AuditHandler serves the operational audit log.
type AuditHandler struct {
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewAuditHandler creates an AuditHandler with the given store and logger.
func NewAuditHandler(audit domain.AuditStore, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		audit:  audit,
		logger: logger,
	}
}

// listAuditResponse wraps the list endpoint output with pagination metadata.
type listAuditResponse struct {
	Entries []domain.AuditEntry `json:"entries"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

// ListEntries returns audit log entries, newest first.
// GET /api/audit?limit=50&offset=0
func (h *AuditHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	entries, err := h.audit.List(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list audit entries failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}

	writeJSON(w, http.StatusOK, listAuditResponse{
		Entries: entries,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}
