package room

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/planning-poker-backend/internal/session"
)

// runEffect performs the tracker side of a command and returns what to
// broadcast, or nil to stay silent. Tracker failures are logged only.
func runEffect(ctx context.Context, t session.Tracker, eff session.Effect, log *zap.Logger) *session.Broadcast {
	switch e := eff.(type) {
	case session.PersistEstimate:
		log := log.With(zap.String("item", e.ItemID))
		if err := t.SetEstimate(ctx, e.ItemID, e.Point); err != nil {
			log.Warn("tracker: set estimate failed", zap.Error(err))
		}
		// The local estimate is already committed; enrichment is best effort.
		details, err := t.Details(ctx, e.ItemID)
		if err != nil {
			log.Warn("tracker: fetch details failed", zap.Error(err))
			details = session.ItemDetails{}
		}
		return session.FinalBroadcast(e.Point, details)

	case session.RefreshItem:
		return refresh(ctx, t, e.ItemID, log)

	case session.WriteAcceptanceCriteria:
		if err := t.SetAcceptanceCriteria(ctx, e.ItemID, e.Text); err != nil {
			log.Warn("tracker: update acceptance criteria failed", zap.String("item", e.ItemID), zap.Error(err))
			return nil
		}
		return refresh(ctx, t, e.ItemID, log)

	case session.WriteDescription:
		if err := t.SetDescription(ctx, e.ItemID, e.Text); err != nil {
			log.Warn("tracker: update description failed", zap.String("item", e.ItemID), zap.Error(err))
			return nil
		}
		return refresh(ctx, t, e.ItemID, log)

	default:
		log.Error("unknown effect", zap.Any("effect", eff))
		return nil
	}
}

func refresh(ctx context.Context, t session.Tracker, itemID string, log *zap.Logger) *session.Broadcast {
	details, err := t.Details(ctx, itemID)
	if err != nil {
		log.Warn("tracker: fetch details failed", zap.String("item", itemID), zap.Error(err))
		return nil
	}
	return session.DetailsBroadcast(details)
}
