package plans

import (
	"deliveroo-agent/internal/domain"
	"math"

	"github.com/sirupsen/logrus"
)

func handoverActive(c *Context, role domain.Role) bool {
	return c.Coord.Mode() == domain.ModeHandover && c.Coord.Role() == role && c.Coord.Handover() != nil
}

// partnerWithin - партнер виден не дальше d от клетки p
func partnerWithin(c *Context, p domain.Position, d int) bool {
	partner, ok := c.Snap.Agent(c.Partner())
	return ok && partner.Pos.Manhattan(p) <= d
}

// deliverDirect - обычная доставка груза в ближайшую точку
func deliverDirect(b *base, c *Context) (domain.Action, bool) {
	me := c.Snap.Self.Pos
	if c.Snap.Grid.IsDelivery(me) {
		return domain.PutdownAction(), true
	}
	target, ok := c.NearestDelivery(me)
	if !ok {
		b.fail()
		return domain.Action{}, false
	}
	action, st := b.stepToward(c, target)
	return action, st == stepMoving
}

// CollectorPlan собирает посылки со стороны спавнов и оставляет их
// на клетке передачи, когда рядом с ней стоит партнер
type CollectorPlan struct {
	base
	patrol *ExplorePlan

	stuck    int
	lastPos  domain.Position
	lastTick int
	bypass   bool
}

func NewCollectorPlan(cfg Settings) *CollectorPlan {
	return &CollectorPlan{
		base:     newBase("collector", cfg),
		patrol:   newPatrol(cfg),
		lastTick: -1,
	}
}

func (p *CollectorPlan) Eligible(c *Context) bool { return handoverActive(c, domain.RoleCollector) }

// Bypass - агент бросил эстафету и везет текущий груз сам
func (p *CollectorPlan) Bypass() bool { return p.bypass }

func (p *CollectorPlan) Action(c *Context) (domain.Action, bool) {
	cfg := c.Coord.Handover()
	snap := c.Snap
	carried := snap.CarriedCount()
	p.trackStuck(c, carried)

	if carried == 0 {
		p.bypass = false
	}
	if !p.bypass && carried > 0 && c.Settings.StuckTicks > 0 && p.stuck >= c.Settings.StuckTicks {
		c.log(p.name).WithFields(logrus.Fields{
			"pos":     snap.Self.Pos.String(),
			"carried": carried,
		}).Info("collector stuck, delivering directly")
		p.bypass = true
		p.clearPath()
	}
	if p.bypass {
		return deliverDirect(&p.base, c)
	}

	best, ok := p.bestItem(c, cfg.Tile)
	if carried >= c.Settings.HandoverCapacity || (carried > 0 && !ok) {
		return p.toHandover(c, cfg)
	}
	if ok {
		if snap.Self.Pos == best.Pos {
			return domain.PickupAction(best.ID, best.Pos), true
		}
		action, st := p.stepToward(c, best.Pos)
		if st == stepNoPath {
			c.Ban(ItemKey(best.ID))
		}
		return action, st == stepMoving
	}
	return p.patrol.Action(c)
}

func (p *CollectorPlan) trackStuck(c *Context, carried int) {
	if c.Snap.Tick == p.lastTick {
		return
	}
	me := c.Snap.Self.Pos
	if carried > 0 && p.lastTick >= 0 && me == p.lastPos {
		p.stuck++
	} else {
		p.stuck = 0
	}
	p.lastTick = c.Snap.Tick
	p.lastPos = me
}

// bestItem - самая выгодная посылка не на клетке передачи.
// Доставка делается партнером, поэтому считается только путь до посылки.
func (p *CollectorPlan) bestItem(c *Context, tile domain.Position) (domain.Item, bool) {
	var best domain.Item
	bestU, found := math.Inf(-1), false
	for _, it := range c.Snap.FreeItems() {
		if it.Pos == tile || c.Banned(ItemKey(it.ID)) {
			continue
		}
		steps, ok := c.Finder.Distance(c.Snap.Self.Pos, it.Pos, c.Policy(), c.Snap.Agents)
		if !ok {
			continue
		}
		u := it.Reward - float64(steps)*c.Settings.DecayPerStep
		if u <= 0 {
			continue
		}
		if !found || u > bestU {
			best, bestU, found = it, u, true
		}
	}
	return best, found
}

func (p *CollectorPlan) toHandover(c *Context, cfg *domain.HandoverConfig) (domain.Action, bool) {
	me := c.Snap.Self.Pos
	if me == cfg.Tile {
		if partnerWithin(c, cfg.Tile, 1) {
			return domain.PutdownAction(), true
		}
		return domain.Action{}, false
	}

	goal := cfg.Tile
	if _, busy := c.Snap.AgentAt(cfg.Tile); busy {
		goal = cfg.CollectorStage
	}
	action, st := p.stepToward(c, goal)
	return action, st == stepMoving
}

func (p *CollectorPlan) Feedback(c *Context, a domain.Action, ok bool) {
	if ok {
		return
	}
	p.fail()
	if a.Type == domain.ActionPickup {
		c.Ban(ItemKey(a.ItemID))
	}
}

func (p *CollectorPlan) Stop() {
	p.base.Stop()
	p.patrol.Stop()
	p.stuck = 0
	p.lastTick = -1
	p.bypass = false
}

// CourierPlan ждет у клетки передачи со стороны доставки, забирает
// оставленные посылки и доставляет их
type CourierPlan struct {
	base
}

func NewCourierPlan(cfg Settings) *CourierPlan {
	return &CourierPlan{base: newBase("courier", cfg)}
}

func (p *CourierPlan) Eligible(c *Context) bool { return handoverActive(c, domain.RoleCourier) }

func (p *CourierPlan) Action(c *Context) (domain.Action, bool) {
	cfg := c.Coord.Handover()
	snap := c.Snap
	if snap.IsCarrying() {
		return deliverDirect(&p.base, c)
	}

	waiting := snap.FreeItemsAt(cfg.Tile)
	if len(waiting) > 0 {
		if snap.Self.Pos == cfg.Tile {
			return domain.PickupAction(waiting[0].ID, cfg.Tile), true
		}
		if _, busy := snap.AgentAt(cfg.Tile); !busy {
			action, st := p.stepToward(c, cfg.Tile)
			return action, st == stepMoving
		}
	}

	action, st := p.stepToward(c, cfg.CourierStage)
	return action, st == stepMoving
}
