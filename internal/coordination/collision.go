package coordination

import (
	"deliveroo-agent/internal/beliefs"
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/pkg/api"
	"time"

	"github.com/sirupsen/logrus"
)

// CollisionPhase - фаза сессии разрешения столкновения
type CollisionPhase uint8

const (
	PhaseIdle         CollisionPhase = iota
	PhaseAwaitingMove                // инициатор ждет MOVED
	PhaseYielding                    // ответчик освобождает клетку
	PhaseResolved                    // MOVED получен, инициатор может идти
)

var phaseToString = map[CollisionPhase]string{
	PhaseIdle:         "IDLE",
	PhaseAwaitingMove: "AWAITING_MOVE",
	PhaseYielding:     "YIELDING",
	PhaseResolved:     "RESOLVED",
}

func (p CollisionPhase) String() string {
	if val, ok := phaseToString[p]; ok {
		return val
	}
	return "UNKNOWN"
}

// Decision - ответ протокола плану, упершемуся в партнера
type Decision uint8

const (
	// DecisionWait - ждать ответа партнера, действия в этом тике нет
	DecisionWait Decision = iota
	// DecisionProceed - партнер освободил клетку, можно шагать
	DecisionProceed
	// DecisionReroute - искать обходной путь с партнером как препятствием
	DecisionReroute
)

type collisionState struct {
	phase     CollisionPhase
	initiator bool
	tile      domain.Position
	startedAt time.Time
	retries   int
	timedOut  bool
	// dispatched - ответчик уже отправил шаг в сторону
	dispatched bool
}

func (e *Engine) CollisionPhase() CollisionPhase { return e.collision.phase }
func (e *Engine) CollisionRetries() int          { return e.collision.retries }

// ResolveBlock вызывается планом, когда следующую клетку пути занимает партнер
func (e *Engine) ResolveBlock(next domain.Position) Decision {
	c := &e.collision
	e.expireCollision()

	// Новое препятствие: прежние таймауты к нему не относятся
	if c.phase == PhaseIdle && next != c.tile {
		c.retries = 0
		c.timedOut = false
	}
	if c.timedOut {
		c.timedOut = false
		return DecisionReroute
	}
	if c.retries >= e.settings.CollisionMaxRetries {
		return DecisionReroute
	}

	switch c.phase {
	case PhaseIdle:
		*c = collisionState{
			phase:     PhaseAwaitingMove,
			initiator: true,
			tile:      next,
			startedAt: e.now,
			retries:   c.retries,
		}
		e.send(api.MsgCollision, e.partnerID, api.CollisionPayload{Type: api.CollisionMove, X: next.X, Y: next.Y})
		e.log.WithField("tile", next.String()).Debug("collision: move requested")
		return DecisionWait
	case PhaseResolved:
		e.endSession()
		c.retries = 0
		return DecisionProceed
	}
	return DecisionWait
}

// expireCollision закрывает сессию по таймауту независимо от фазы
func (e *Engine) expireCollision() {
	c := &e.collision
	if c.phase == PhaseIdle || e.now.Sub(c.startedAt) < e.settings.CollisionTimeout {
		return
	}

	if c.initiator && c.phase == PhaseAwaitingMove {
		c.retries++
		c.timedOut = true
		e.log.WithFields(logrus.Fields{
			"tile":    c.tile.String(),
			"retries": c.retries,
		}).Warn("collision: partner did not respond")
	}
	if c.initiator {
		e.endSession()
		return
	}
	c.phase = PhaseIdle
	c.dispatched = false
}

func (e *Engine) endSession() {
	e.send(api.MsgCollision, e.partnerID, api.CollisionPayload{Type: api.CollisionEnd, X: e.collision.tile.X, Y: e.collision.tile.Y})
	e.collision.phase = PhaseIdle
	e.collision.initiator = false
	e.collision.dispatched = false
}

func (e *Engine) onCollision(env api.Envelope, p api.CollisionPayload, now time.Time) error {
	c := &e.collision
	tile := domain.Position{X: p.X, Y: p.Y}

	switch p.Type {
	case api.CollisionMove:
		if c.initiator && c.phase == PhaseAwaitingMove {
			// Оба ждут друг друга: уступает больший ID
			if domain.CompareAgentIDs(e.selfID, e.partnerID) < 0 {
				return nil
			}
			e.log.Debug("collision: both initiated, deferring to partner")
		}
		*c = collisionState{
			phase:     PhaseYielding,
			tile:      tile,
			startedAt: now,
			retries:   c.retries,
		}
	case api.CollisionMoved:
		if c.initiator && c.phase == PhaseAwaitingMove {
			c.phase = PhaseResolved
		}
	case api.CollisionEnd:
		if !c.initiator {
			c.phase = PhaseIdle
			c.dispatched = false
		}
	}
	return nil
}

// YieldRequested - партнер просит освободить клетку, а шаг еще не сделан
func (e *Engine) YieldRequested() bool {
	return e.collision.phase == PhaseYielding && !e.collision.dispatched
}

// YieldMove выбирает шаг в свободную соседнюю клетку.
// Если мы уже не на запрошенной клетке или свободной клетки нет,
// сразу отвечает MOVED и возвращает false.
func (e *Engine) YieldMove(snap *beliefs.Snapshot) (domain.Action, bool) {
	if !e.YieldRequested() {
		return domain.Action{}, false
	}
	me := snap.Self.Pos
	if me == e.collision.tile && snap.Grid != nil {
		for _, n := range snap.Grid.Neighbors(me) {
			if _, busy := snap.AgentAt(n); busy {
				continue
			}
			dir, _ := me.DirectionTo(n)
			e.collision.dispatched = true
			return domain.MoveAction(me, dir), true
		}
		e.log.WithField("tile", me.String()).Debug("collision: no free cell, reporting moved")
	}
	e.FinishYield()
	return domain.Action{}, false
}

// FinishYield сообщает инициатору, что клетка освобождена
func (e *Engine) FinishYield() {
	if e.collision.phase != PhaseYielding {
		return
	}
	tile := e.collision.tile
	e.collision.phase = PhaseIdle
	e.collision.dispatched = false
	e.send(api.MsgCollision, e.partnerID, api.CollisionPayload{Type: api.CollisionMoved, X: tile.X, Y: tile.Y})
}
