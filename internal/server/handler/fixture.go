package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// FixtureService defines the methods that the fixture handler requires from
// the engine. It is declared locally so the handler package does not depend
// on the concrete engine implementation.
type FixtureService interface {
	OpenBetWindow(ctx context.Context, id domain.FixtureID) error
	Reconcile(ctx context.Context, id domain.FixtureID, now time.Time) (domain.BettingState, error)
	RefundAllActive(ctx context.Context, id domain.FixtureID) error
	Snapshot(ctx context.Context, id domain.FixtureID) domain.FixtureSnapshot
	Enriched(id domain.FixtureID, participant common.Address) domain.EnrichedFixture
	TotalStaked(id domain.FixtureID, outcome domain.Outcome) (*big.Int, error)
	Settled(id domain.FixtureID) bool
	LastResolutionError(id domain.FixtureID) string
	Payout(ctx context.Context, id domain.FixtureID, participant common.Address) (domain.PayoutRecord, error)
	Payouts(ctx context.Context, id domain.FixtureID) ([]domain.PayoutRecord, error)
	Commission(ctx context.Context, id domain.FixtureID) (domain.CommissionRecord, error)
}

// FixtureHandler serves fixture lifecycle and settlement-query endpoints.
type FixtureHandler struct {
	fixtures FixtureService
	logger   *slog.Logger
}

// NewFixtureHandler creates a FixtureHandler with the given service and logger.
func NewFixtureHandler(fixtures FixtureService, logger *slog.Logger) *FixtureHandler {
	return &FixtureHandler{
		fixtures: fixtures,
		logger:   logger,
	}
}

// fixtureResponse is the participant-aware fixture projection.
type fixtureResponse struct {
	FixtureID   string    `json:"fixture_id"`
	State       string    `json:"state"`
	KickoffTime *int64    `json:"kickoff_time,omitempty"`
	User        [3]string `json:"user,omitempty"`
	Total       [3]string `json:"total"`
	Settled     bool      `json:"settled"`
	LastError   string    `json:"last_resolution_error,omitempty"`
}

// snapshotResponse mirrors the cached participant-independent snapshot.
type snapshotResponse struct {
	FixtureID   string    `json:"fixture_id"`
	State       string    `json:"state"`
	KickoffTime *int64    `json:"kickoff_time,omitempty"`
	Total       [3]string `json:"total"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetFixture returns a fixture's snapshot, or the enriched projection when a
// participant address is supplied.
// GET /api/fixtures/{id}?participant=0x...
func (h *FixtureHandler) GetFixture(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing fixture id")
		return
	}
	fixtureID := domain.FixtureID(id)

	if p := r.URL.Query().Get("participant"); p != "" {
		participant, err := parseAddress(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		enriched := h.fixtures.Enriched(fixtureID, participant)
		resp := fixtureResponse{
			FixtureID: id,
			State:     enriched.State.String(),
			User:      enriched.User.Strings(),
			Total:     enriched.Total.Strings(),
			Settled:   h.fixtures.Settled(fixtureID),
			LastError: h.fixtures.LastResolutionError(fixtureID),
		}
		if enriched.KickoffTime != nil {
			unix := enriched.KickoffTime.Unix()
			resp.KickoffTime = &unix
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	snap := h.fixtures.Snapshot(r.Context(), fixtureID)
	resp := snapshotResponse{
		FixtureID: string(snap.FixtureID),
		State:     snap.State.String(),
		Total:     snap.Total,
		UpdatedAt: snap.UpdatedAt,
	}
	if snap.KickoffTime != nil {
		unix := snap.KickoffTime.Unix()
		resp.KickoffTime = &unix
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTotals returns the total escrowed per outcome.
// GET /api/fixtures/{id}/totals
func (h *FixtureHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing fixture id")
		return
	}

	totals := make(map[string]string, len(domain.Outcomes))
	for _, o := range domain.Outcomes {
		amount, err := h.fixtures.TotalStaked(domain.FixtureID(id), o)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to read totals")
			return
		}
		totals[o.String()] = amount.String()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fixture_id": id,
		"totals":     totals,
	})
}

// OpenFixture requests that betting on a fixture opens. The opening is
// verified against the kickoff window asynchronously.
// POST /api/fixtures/{id}/open
func (h *FixtureHandler) OpenFixture(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing fixture id")
		return
	}

	if err := h.fixtures.OpenBetWindow(r.Context(), domain.FixtureID(id)); err != nil {
		if status := errorStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: open fixture failed",
			slog.String("fixture_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to open fixture")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"fixture_id": id,
		"state":      domain.BettingStateOpening.String(),
	})
}

// ReconcileFixture forces an immediate lifecycle reconciliation instead of
// waiting for the next background sweep.
// POST /api/fixtures/{id}/reconcile
func (h *FixtureHandler) ReconcileFixture(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing fixture id")
		return
	}

	state, err := h.fixtures.Reconcile(r.Context(), domain.FixtureID(id), time.Now())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: reconcile fixture failed",
			slog.String("fixture_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to reconcile fixture")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"fixture_id": id,
		"state":      state.String(),
	})
}

// RefundFixture refunds every active stake on a fixture in full.
// POST /api/fixtures/{id}/refund
func (h *FixtureHandler) RefundFixture(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing fixture id")
		return
	}

	if err := h.fixtures.RefundAllActive(r.Context(), domain.FixtureID(id)); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: refund fixture failed",
			slog.String("fixture_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to refund fixture")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"fixture_id": id,
		"status":     "refunded",
	})
}

// payoutResponse renders one payout record.
type payoutResponse struct {
	FixtureID   string    `json:"fixture_id"`
	Participant string    `json:"participant"`
	NetAmount   string    `json:"net_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

func toPayoutResponse(rec domain.PayoutRecord) payoutResponse {
	return payoutResponse{
		FixtureID:   string(rec.FixtureID),
		Participant: rec.Participant.Hex(),
		NetAmount:   rec.NetAmount.String(),
		CreatedAt:   rec.CreatedAt,
	}
}

// ListPayouts returns every payout record written for a fixture.
// GET /api/fixtures/{id}/payouts
func (h *FixtureHandler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing fixture id")
		return
	}

	recs, err := h.fixtures.Payouts(r.Context(), domain.FixtureID(id))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list payouts failed",
			slog.String("fixture_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list payouts")
		return
	}

	out := make([]payoutResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toPayoutResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fixture_id": id,
		"payouts":    out,
	})
}

// GetPayout returns one participant's payout record for a fixture.
// GET /api/fixtures/{id}/payouts/{participant}
func (h *FixtureHandler) GetPayout(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing fixture id")
		return
	}
	participant, err := parseAddress(pathParam(r, "participant"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.fixtures.Payout(r.Context(), domain.FixtureID(id), participant)
	if err != nil {
		if status := errorStatus(err); status != 0 {
			writeError(w, status, "payout not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get payout failed",
			slog.String("fixture_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get payout")
		return
	}

	writeJSON(w, http.StatusOK, toPayoutResponse(rec))
}

// GetCommission returns the house commission record for a fixture.
// GET /api/fixtures/{id}/commission
func (h *FixtureHandler) GetCommission(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing fixture id")
		return
	}

	rec, err := h.fixtures.Commission(r.Context(), domain.FixtureID(id))
	if err != nil {
		if status := errorStatus(err); status != 0 {
			writeError(w, status, "commission not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get commission failed",
			slog.String("fixture_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get commission")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fixture_id": string(rec.FixtureID),
		"amount":     rec.Amount.String(),
		"created_at": rec.CreatedAt,
	})
}
