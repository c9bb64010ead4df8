package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

// CreditService defines the oracle-credit ledger methods the credit handler
// requires from the engine.
type CreditService interface {
	DepositCredit(ctx context.Context, participant common.Address, amount *big.Int) error
	WithdrawCredit(ctx context.Context, participant common.Address, amount *big.Int) error
	CreditBalance(ctx context.Context, participant common.Address) (*big.Int, error)
}

// CreditHandler serves the oracle-fee credit ledger endpoints.
type CreditHandler struct {
	credits CreditService
	logger  *slog.Logger
}

// NewCreditHandler creates a CreditHandler with the given service and logger.
func NewCreditHandler(credits CreditService, logger *slog.Logger) *CreditHandler {
	return &CreditHandler{
		credits: credits,
		logger:  logger,
	}
}

// creditRequest is the JSON body shared by the deposit and withdraw endpoints.
type creditRequest struct {
	Participant string `json:"participant"`
	Amount      string `json:"amount"`
}

func (req creditRequest) parse() (common.Address, *big.Int, error) {
	participant, err := parseAddress(req.Participant)
	if err != nil {
		return common.Address{}, nil, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return common.Address{}, nil, err
	}
	return participant, amount, nil
}

// Deposit credits a participant's oracle-fee balance.
// POST /api/credits/deposit
func (h *CreditHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	participant, amount, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.credits.DepositCredit(r.Context(), participant, amount); err != nil {
		if status := errorStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: credit deposit failed",
			slog.String("participant", participant.Hex()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to deposit credit")
		return
	}

	h.writeBalance(w, r, participant)
}

// Withdraw debits a participant's oracle-fee balance.
// POST /api/credits/withdraw
func (h *CreditHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	participant, amount, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.credits.WithdrawCredit(r.Context(), participant, amount); err != nil {
		if status := errorStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: credit withdraw failed",
			slog.String("participant", participant.Hex()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to withdraw credit")
		return
	}

	h.writeBalance(w, r, participant)
}

// GetBalance returns a participant's oracle-fee credit balance.
// GET /api/credits/{participant}
func (h *CreditHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	participant, err := parseAddress(pathParam(r, "participant"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeBalance(w, r, participant)
}

func (h *CreditHandler) writeBalance(w http.ResponseWriter, r *http.Request, participant common.Address) {
	balance, err := h.credits.CreditBalance(r.Context(), participant)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: credit balance failed",
			slog.String("participant", participant.Hex()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read credit balance")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"participant": participant.Hex(),
		"balance":     balance.String(),
	})
}
