package plans

import (
	"deliveroo-agent/internal/domain"
)

// ExplorePlan обходит карту: цель - наименее посещенный спавн,
// при их отсутствии - наименее посещенная обычная клетка
type ExplorePlan struct {
	base
	visits    map[domain.Position]int
	lastTick  int
	lastPos   domain.Position
	spawnOnly bool
}

func NewExplorePlan(cfg Settings) *ExplorePlan {
	return &ExplorePlan{
		base:     newBase("explore", cfg),
		visits:   make(map[domain.Position]int),
		lastTick: -1,
	}
}

// newPatrol - обход только спавнов, без запасного варианта
func newPatrol(cfg Settings) *ExplorePlan {
	p := NewExplorePlan(cfg)
	p.name = "patrol"
	p.spawnOnly = true
	return p
}

func (p *ExplorePlan) Visits(pos domain.Position) int { return p.visits[pos] }

func (p *ExplorePlan) Eligible(c *Context) bool {
	return c.Snap.Grid != nil && len(c.Snap.Grid.ReachableTiles()) > 0
}

func (p *ExplorePlan) Action(c *Context) (domain.Action, bool) {
	p.visit(c)
	target, ok := p.pickTarget(c)
	if !ok {
		return domain.Action{}, false
	}
	action, st := p.stepToward(c, target)
	if st == stepNoPath {
		c.Ban(TileKey(target))
	}
	return action, st == stepMoving
}

// visit считает клетку агента один раз за тик
func (p *ExplorePlan) visit(c *Context) {
	if c.Snap.Tick == p.lastTick && c.Snap.Self.Pos == p.lastPos {
		return
	}
	p.lastTick = c.Snap.Tick
	p.lastPos = c.Snap.Self.Pos
	p.visits[c.Snap.Self.Pos]++
}

func (p *ExplorePlan) pickTarget(c *Context) (domain.Position, bool) {
	g := c.Snap.Grid
	pool := c.Coord.Zone()
	if len(pool) == 0 {
		pool = g.Spawns
	}
	if target, ok := p.leastVisited(c, pool); ok {
		return target, true
	}
	if p.spawnOnly {
		return domain.Position{}, false
	}

	var rest []domain.Position
	for _, pos := range g.ReachableTiles() {
		if !g.IsSpawn(pos) {
			rest = append(rest, pos)
		}
	}
	return p.leastVisited(c, rest)
}

// leastVisited: меньше посещений, затем ближе, затем раньше в списке
func (p *ExplorePlan) leastVisited(c *Context, pool []domain.Position) (domain.Position, bool) {
	me := c.Snap.Self.Pos
	var best domain.Position
	found := false
	for _, pos := range pool {
		if c.Banned(TileKey(pos)) {
			continue
		}
		if !found {
			best, found = pos, true
			continue
		}
		vp, vb := p.visits[pos], p.visits[best]
		if vp < vb || (vp == vb && me.Manhattan(pos) < me.Manhattan(best)) {
			best = pos
		}
	}
	return best, found
}

func (p *ExplorePlan) Stop() {
	p.base.Stop()
	p.lastTick = -1
}
