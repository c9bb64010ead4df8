package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// StakeService defines the methods that the stake handler requires from the
// engine.
type StakeService interface {
	Stake(ctx context.Context, id domain.FixtureID, outcome domain.Outcome, participant common.Address, amount *big.Int) error
	Unstake(ctx context.Context, id domain.FixtureID, outcome domain.Outcome, participant common.Address, amount *big.Int) error
	StakeSummary(id domain.FixtureID, participant common.Address) domain.StakeVector
}

// StakeHandler serves stake and unstake endpoints.
type StakeHandler struct {
	stakes StakeService
	logger *slog.Logger
}

// NewStakeHandler creates a StakeHandler with the given service and logger.
func NewStakeHandler(stakes StakeService, logger *slog.Logger) *StakeHandler {
	return &StakeHandler{
		stakes: stakes,
		logger: logger,
	}
}

// stakeRequest is the JSON body shared by the stake and unstake endpoints.
type stakeRequest struct {
	Participant string `json:"participant"`
	Outcome     string `json:"outcome"`
	Amount      string `json:"amount"`
}

func (req stakeRequest) parse() (common.Address, domain.Outcome, *big.Int, error) {
	participant, err := parseAddress(req.Participant)
	if err != nil {
		return common.Address{}, domain.OutcomeDefault, nil, err
	}
	outcome, err := domain.ParseOutcome(req.Outcome)
	if err != nil {
		return common.Address{}, domain.OutcomeDefault, nil, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return common.Address{}, domain.OutcomeDefault, nil, err
	}
	return participant, outcome, amount, nil
}

// PlaceStake escrows a stake against one outcome of a fixture.
// POST /api/fixtures/{id}/stakes
func (h *StakeHandler) PlaceStake(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing fixture id")
		return
	}

	var req stakeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	participant, outcome, amount, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.stakes.Stake(r.Context(), domain.FixtureID(id), outcome, participant, amount); err != nil {
		if status := errorStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: stake failed",
			slog.String("fixture_id", id),
			slog.String("participant", participant.Hex()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to place stake")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"fixture_id":  id,
		"participant": participant.Hex(),
		"outcome":     outcome.String(),
		"amount":      amount.String(),
	})
}

// RemoveStake releases part or all of an escrowed stake.
// POST /api/fixtures/{id}/unstakes
func (h *StakeHandler) RemoveStake(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing fixture id")
		return
	}

	var req stakeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	participant, outcome, amount, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.stakes.Unstake(r.Context(), domain.FixtureID(id), outcome, participant, amount); err != nil {
		if status := errorStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: unstake failed",
			slog.String("fixture_id", id),
			slog.String("participant", participant.Hex()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to remove stake")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"fixture_id":  id,
		"participant": participant.Hex(),
		"outcome":     outcome.String(),
		"amount":      amount.String(),
	})
}

// GetStakes returns a participant's per-outcome balances on a fixture.
// GET /api/fixtures/{id}/stakes/{participant}
func (h *StakeHandler) GetStakes(w http.ResponseWriter, r *http.Request) {
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

	vec := h.stakes.StakeSummary(domain.FixtureID(id), participant)
	amounts := vec.Strings()

	writeJSON(w, http.StatusOK, map[string]any{
		"fixture_id":  id,
		"participant": participant.Hex(),
		"stakes": map[string]string{
			domain.OutcomeHome.String(): amounts[domain.OutcomeHome.Index()],
			domain.OutcomeDraw.String(): amounts[domain.OutcomeDraw.Index()],
			domain.OutcomeAway.String(): amounts[domain.OutcomeAway.Index()],
		},
	})
}
