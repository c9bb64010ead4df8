package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

// Watcher subscribes to fixture events on the signal bus and forwards them
// to the Notifier. Which event types actually reach operators is decided by
// the Notifier's allow-list.
type Watcher struct {
	bus      domain.SignalBus
	notifier *Notifier
	logger   *slog.Logger
}

// NewWatcher creates a Watcher over the given bus and notifier.
func NewWatcher(bus domain.SignalBus, notifier *Notifier, logger *slog.Logger) *Watcher {
	return &Watcher{
		bus:      bus,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "notify_watcher")),
	}
}

// Run blocks, forwarding fixture events until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	msgCh, err := w.bus.Subscribe(ctx, "ch:fixture:*")
	if err != nil {
		return fmt.Errorf("notify: subscribe: %w", err)
	}
	w.logger.InfoContext(ctx, "notification watcher started")

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "notification watcher stopped")
			return ctx.Err()
		case data, ok := <-msgCh:
			if !ok {
				return fmt.Errorf("notify: event subscription closed")
			}
			w.handle(ctx, data)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, data []byte) {
	var ev struct {
		Type      domain.EventType `json:"type"`
		FixtureID domain.FixtureID `json:"fixture_id"`
		Payload   json.RawMessage  `json:"payload"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		w.logger.WarnContext(ctx, "undecodable event dropped",
			slog.String("error", err.Error()),
		)
		return
	}

	title, message := w.render(ev.Type, ev.FixtureID, ev.Payload)
	if title == "" {
		return
	}
	if err := w.notifier.Notify(ctx, string(ev.Type), title, message); err != nil {
		w.logger.WarnContext(ctx, "notification delivery failed",
			slog.String("event", string(ev.Type)),
			slog.String("error", err.Error()),
		)
	}
}

// render formats one event for human consumption. Returns an empty title for
// event types that never notify.
func (w *Watcher) render(typ domain.EventType, id domain.FixtureID, raw json.RawMessage) (title, message string) {
	switch typ {
	case domain.EventPayoutRecorded:
		var p domain.PayoutPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return "", ""
		}
		return "Payout recorded",
			fmt.Sprintf("Fixture %s: %s wei to %s", id, p.NetAmount, p.Participant)

	case domain.EventCommissionRecorded:
		var p domain.CommissionPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return "", ""
		}
		return "Commission recorded",
			fmt.Sprintf("Fixture %s: %s wei house commission", id, p.TotalCommission)

	case domain.EventResultResolutionFailed:
		var p domain.ResolutionFailedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return "", ""
		}
		return "Result resolution failed",
			fmt.Sprintf("Fixture %s: %s", id, p.Message)

	case domain.EventLifecycleStateChanged:
		var p domain.StateChangedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return "", ""
		}
		return "Fixture state changed",
			fmt.Sprintf("Fixture %s is now %s", id, p.NewState)

	case domain.EventStakeRecorded, domain.EventUnstakeRecorded, domain.EventKickoffTimeUpdated:
		// Too chatty for operator channels.
		return "", ""

	default:
		return "", ""
	}
}
