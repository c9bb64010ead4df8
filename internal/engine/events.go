package engine

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

const eventStream = "events:fixtures"

// FixtureChannel returns the pub/sub channel carrying a fixture's events.
func FixtureChannel(id domain.FixtureID) string {
	return "ch:fixture:" + string(id)
}

// publish emits one domain event on the fixture's channel and journals it to
// the fixture event stream. Event emission is best-effort: a bus failure is
// logged, never propagated into the operation that triggered it.
func (e *Engine) publish(ctx context.Context, id domain.FixtureID, typ domain.EventType, payload any) {
	if e.deps.Bus == nil {
		return
	}
	ev := domain.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		FixtureID: id,
		At:        e.now(),
		Payload:   payload,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		e.logger.ErrorContext(ctx, "event marshal failed",
			slog.String("type", string(typ)),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := e.deps.Bus.Publish(ctx, FixtureChannel(id), data); err != nil {
		e.logger.WarnContext(ctx, "event publish failed",
			slog.String("type", string(typ)),
			slog.String("fixture_id", string(id)),
			slog.String("error", err.Error()),
		)
	}
	if err := e.deps.Bus.StreamAppend(ctx, eventStream, data); err != nil {
		e.logger.WarnContext(ctx, "event stream append failed",
			slog.String("type", string(typ)),
			slog.String("fixture_id", string(id)),
			slog.String("error", err.Error()),
		)
	}
}

func (e *Engine) publishStateChange(ctx context.Context, id domain.FixtureID, state domain.BettingState) {
	e.publish(ctx, id, domain.EventLifecycleStateChanged, domain.StateChangedPayload{
		NewState: state.String(),
	})
}

// auditLog appends to the operational audit trail, best-effort.
func (e *Engine) auditLog(ctx context.Context, event string, detail map[string]any) {
	if e.deps.Audit == nil {
		return
	}
	if err := e.deps.Audit.Log(ctx, event, detail); err != nil {
		e.logger.WarnContext(ctx, "audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// updateSnapshot refreshes the cached fixture snapshot after a mutation.
// Caller holds ent.mu.
func (e *Engine) updateSnapshot(ctx context.Context, ent *fixtureEntry) {
	if e.deps.Cache == nil {
		return
	}
	snap := domain.FixtureSnapshot{
		FixtureID:   ent.fix.ID,
		State:       ent.fix.State,
		KickoffTime: ent.fix.KickoffTime,
		Total:       ent.book.TotalVector().Strings(),
		UpdatedAt:   e.now(),
	}
	if err := e.deps.Cache.Set(ctx, snap); err != nil {
		e.logger.WarnContext(ctx, "snapshot cache update failed",
			slog.String("fixture_id", string(ent.fix.ID)),
			slog.String("error", err.Error()),
		)
	}
}

// archiveReport hands a settlement report to the configured sink.
func (e *Engine) archiveReport(ctx context.Context, report domain.SettlementReport) {
	if e.deps.Reports == nil {
		return
	}
	if err := e.deps.Reports.ArchiveSettlement(ctx, report); err != nil {
		e.logger.WarnContext(ctx, "settlement report archive failed",
			slog.String("fixture_id", string(report.FixtureID)),
			slog.String("error", err.Error()),
		)
	}
}

// requestOracle debits the house credit balance by the request fee and sends
// the outbound request. Request construction is best-effort: the lifecycle
// transition that triggered it stands even if the request cannot go out, and
// the failure is left to the audit trail and a later manual retry.
func (e *Engine) requestOracle(ctx context.Context, typ domain.OracleRequestType, id domain.FixtureID) {
	if e.deps.Oracle == nil {
		return
	}
	if e.deps.Credits != nil && e.cfg.OracleRequestFee.Sign() > 0 {
		if err := e.deps.Credits.Withdraw(ctx, e.cfg.HouseAddress, e.cfg.OracleRequestFee); err != nil {
			e.logger.ErrorContext(ctx, "oracle request fee debit failed",
				slog.String("fixture_id", string(id)),
				slog.String("request_type", string(typ)),
				slog.String("error", err.Error()),
			)
			e.auditLog(ctx, "oracle_request_skipped", map[string]any{
				"fixture_id":   string(id),
				"request_type": string(typ),
				"reason":       err.Error(),
			})
			return
		}
	}

	var (
		requestID string
		err       error
	)
	switch typ {
	case domain.OracleRequestKickoff:
		requestID, err = e.deps.Oracle.RequestKickoffTime(ctx, id)
	case domain.OracleRequestResult:
		requestID, err = e.deps.Oracle.RequestResult(ctx, id)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "oracle request failed",
			slog.String("fixture_id", string(id)),
			slog.String("request_type", string(typ)),
			slog.String("error", err.Error()),
		)
		e.auditLog(ctx, "oracle_request_failed", map[string]any{
			"fixture_id":   string(id),
			"request_type": string(typ),
			"reason":       err.Error(),
		})
		return
	}
	e.logger.InfoContext(ctx, "oracle request sent",
		slog.String("fixture_id", string(id)),
		slog.String("request_type", string(typ)),
		slog.String("request_id", requestID),
	)
}
