package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// OracleDeliveryService defines the engine methods invoked by inbound oracle
// webhook deliveries.
type OracleDeliveryService interface {
	OnKickoffTimeDelivered(ctx context.Context, id domain.FixtureID, kickoff time.Time)
	OnResultDelivered(ctx context.Context, id domain.FixtureID, signal domain.ResultSignal) error
}

// OracleHandler serves the webhook endpoints the oracle collaborator answers
// to. Deliveries are authenticated with a shared secret carried in the
// X-Webhook-Secret header.
type OracleHandler struct {
	deliveries OracleDeliveryService
	secret     string
	logger     *slog.Logger
}

// NewOracleHandler creates an OracleHandler. An empty secret disables
// delivery authentication (development mode).
func NewOracleHandler(deliveries OracleDeliveryService, secret string, logger *slog.Logger) *OracleHandler {
	return &OracleHandler{
		deliveries: deliveries,
		secret:     secret,
		logger:     logger,
	}
}

// authorized checks the shared-secret header with a constant-time compare.
func (h *OracleHandler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return true
	}
	provided := r.Header.Get("X-Webhook-Secret")
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) == 1
}

// kickoffDelivery is the JSON body of a kickoff-time delivery.
type kickoffDelivery struct {
	RequestID   string `json:"request_id"`
	FixtureID   string `json:"fixture_id"`
	KickoffTime int64  `json:"kickoff_time"` // unix seconds
}

// HandleKickoff accepts an oracle kickoff-time delivery.
// POST /api/oracle/kickoff
func (h *OracleHandler) HandleKickoff(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	var req kickoffDelivery
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FixtureID == "" {
		writeError(w, http.StatusBadRequest, "missing fixture_id")
		return
	}
	if req.KickoffTime <= 0 {
		writeError(w, http.StatusBadRequest, "invalid kickoff_time")
		return
	}

	kickoff := time.Unix(req.KickoffTime, 0).UTC()
	h.deliveries.OnKickoffTimeDelivered(r.Context(), domain.FixtureID(req.FixtureID), kickoff)

	h.logger.InfoContext(r.Context(), "oracle kickoff delivered",
		slog.String("fixture_id", req.FixtureID),
		slog.String("request_id", req.RequestID),
		slog.Time("kickoff", kickoff),
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// resultDelivery is the JSON body of a result delivery. Result feeds have
// historically delivered both numeric codes and text codes, so the result
// field accepts either.
type resultDelivery struct {
	RequestID string          `json:"request_id"`
	FixtureID string          `json:"fixture_id"`
	Result    json.RawMessage `json:"result"`
}

// parseSignal normalizes the raw result field to a ResultSignal.
func parseSignal(raw json.RawMessage) (domain.ResultSignal, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return domain.ResultSignal{}, errors.New("missing result")
	}

	if text[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return domain.ResultSignal{}, err
		}
		// Numeric strings arrive from providers that quote everything.
		if code, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return domain.NumericSignal(code), nil
		}
		return domain.TextSignal(s), nil
	}

	var code int64
	if err := json.Unmarshal(raw, &code); err != nil {
		return domain.ResultSignal{}, err
	}
	return domain.NumericSignal(code), nil
}

// HandleResult accepts an oracle result delivery and triggers settlement.
// An unresolvable result is answered with 422 and may be redelivered with a
// corrected signal.
// POST /api/oracle/result
func (h *OracleHandler) HandleResult(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	var req resultDelivery
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FixtureID == "" {
		writeError(w, http.StatusBadRequest, "missing fixture_id")
		return
	}
	signal, err := parseSignal(req.Result)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.deliveries.OnResultDelivered(r.Context(), domain.FixtureID(req.FixtureID), signal)
	if err != nil {
		var unknown *domain.UnknownResultError
		if errors.As(err, &unknown) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if status := errorStatus(err); status != 0 {
			writeError(w, status, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: result delivery failed",
			slog.String("fixture_id", req.FixtureID),
			slog.String("request_id", req.RequestID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to process result")
		return
	}

	h.logger.InfoContext(r.Context(), "oracle result delivered",
		slog.String("fixture_id", req.FixtureID),
		slog.String("request_id", req.RequestID),
		slog.String("signal", signal.String()),
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}
