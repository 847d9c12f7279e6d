package agent

import (
	"context"
	"deliveroo-agent/internal/domain"
	"fmt"
)

// dispatch отправляет действие в транспорт и переносит результат в убеждения.
// Паника транспорта тоже считается неудачей.
func (a *Agent) dispatch(ctx context.Context, act domain.Action) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.log.WithField("panic", r).Error("action dispatch panicked")
			a.scheduler.StopCurrent("panic")
			ok = false
		}
	}()

	if a.transport == nil {
		return false
	}

	var err error
	switch act.Type {
	case domain.ActionMove:
		var pos domain.Position
		pos, ok, err = a.transport.Move(ctx, act.Direction)
		if err == nil && ok {
			a.store.ApplyMove(pos)
		}

	case domain.ActionPickup:
		var ids []string
		ids, ok, err = a.transport.Pickup(ctx, act.ItemID)
		// пустой PICKUP - тоже неудача
		ok = ok && len(ids) > 0
		if err == nil && ok {
			a.store.ApplyPickup(ids, a.clock())
		}

	case domain.ActionPutdown:
		var ids []string
		ids, ok, err = a.transport.Putdown(ctx)
		ok = ok && len(ids) > 0
		if err == nil && ok {
			me, _ := a.store.Self()
			delivered := a.store.Grid() != nil && a.store.Grid().IsDelivery(me.Pos)
			a.store.ApplyPutdown(ids, delivered)
		}

	case domain.ActionWait:
		return true

	default:
		err = fmt.Errorf("unsupported action %s", act.Type)
	}

	if err != nil {
		a.log.WithError(err).WithField("action", act.String()).Warn("action failed")
		return false
	}
	return ok
}
