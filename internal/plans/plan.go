package plans

import (
	"deliveroo-agent/internal/coordination"
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/internal/pathfinding"
)

// Plan - источник действий для одного намерения.
// Action возвращает false, если в этом тике продвинуться нельзя (агент ждет).
type Plan interface {
	Name() string
	Eligible(c *Context) bool
	Action(c *Context) (domain.Action, bool)
	// Feedback получает результат отправленного действия
	Feedback(c *Context, a domain.Action, ok bool)
	Failures() int
	ShouldAbort() bool
	ResetFailures()
	// Stop сбрасывает кэш пути и цель
	Stop()
}

type stepStatus uint8

const (
	stepArrived stepStatus = iota
	stepMoving
	stepWaiting
	stepNoPath
)

// base - общий кэш пути и счетчик ошибок
type base struct {
	name        string
	maxFailures int

	goal     domain.Position
	hasGoal  bool
	path     []domain.Position
	failures int
}

func newBase(name string, cfg Settings) base {
	return base{name: name, maxFailures: cfg.MaxFailures}
}

func (b *base) Name() string   { return b.name }
func (b *base) Failures() int  { return b.failures }
func (b *base) ResetFailures() { b.failures = 0 }

func (b *base) ShouldAbort() bool {
	return b.maxFailures > 0 && b.failures > b.maxFailures
}

func (b *base) Stop() { b.clearPath() }

func (b *base) Feedback(_ *Context, _ domain.Action, ok bool) {
	if !ok {
		b.fail()
	}
}

func (b *base) fail() {
	b.failures++
	b.clearPath()
}

func (b *base) clearPath() {
	b.path = nil
	b.hasGoal = false
}

// stepToward делает шаг по кэшированному пути к goal.
// Путь пересчитывается при смене цели, опустевшем кэше или сбитой позиции.
func (b *base) stepToward(c *Context, goal domain.Position) (domain.Action, stepStatus) {
	me := c.Snap.Self.Pos
	if me == goal {
		return domain.Action{}, stepArrived
	}
	if !b.hasGoal || b.goal != goal {
		b.path = nil
	}
	for len(b.path) > 0 && b.path[0] == me {
		b.path = b.path[1:]
	}
	if len(b.path) == 0 || !me.IsAdjacent(b.path[0]) {
		b.path = c.Finder.FindPath(me, goal, c.Policy(), c.Snap.Agents)
		b.goal, b.hasGoal = goal, true
		if len(b.path) == 0 {
			b.fail()
			return domain.Action{}, stepNoPath
		}
	}

	next := b.path[0]
	if other, busy := c.Snap.AgentAt(next); busy {
		if other.ID != c.Partner() {
			return b.reroute(c, goal)
		}
		if c.Coord.Mode() == domain.ModeHandover {
			return domain.Action{}, stepWaiting
		}
		switch c.Coord.ResolveBlock(next) {
		case coordination.DecisionWait:
			return domain.Action{}, stepWaiting
		case coordination.DecisionReroute:
			return b.reroute(c, goal)
		}
	}
	return b.move(me, next)
}

// reroute ищет путь, в котором все агенты - препятствия
func (b *base) reroute(c *Context, goal domain.Position) (domain.Action, stepStatus) {
	me := c.Snap.Self.Pos
	b.path = c.Finder.FindPath(me, goal, pathfinding.BlockAll(), c.Snap.Agents)
	b.goal, b.hasGoal = goal, true
	if len(b.path) == 0 {
		b.fail()
		return domain.Action{}, stepNoPath
	}
	return b.move(me, b.path[0])
}

func (b *base) move(me, next domain.Position) (domain.Action, stepStatus) {
	dir, ok := me.DirectionTo(next)
	if !ok {
		b.clearPath()
		return domain.Action{}, stepWaiting
	}
	return domain.MoveAction(me, dir), stepMoving
}
