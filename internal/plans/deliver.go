package plans

import (
	"deliveroo-agent/internal/domain"
	"math"

	"github.com/sirupsen/logrus"
)

type detour struct {
	itemID  string
	pos     domain.Position
	utility float64
}

// DeliverPlan везет груз до ближайшей доставки.
// За одну поездку допускается один короткий крюк за посылкой рядом.
type DeliverPlan struct {
	base
	detour      *detour
	detourTaken bool
}

func NewDeliverPlan(cfg Settings) *DeliverPlan {
	return &DeliverPlan{base: newBase("deliver", cfg)}
}

// Detour возвращает ID посылки текущего крюка
func (p *DeliverPlan) Detour() (string, bool) {
	if p.detour == nil {
		return "", false
	}
	return p.detour.itemID, true
}

func (p *DeliverPlan) Eligible(c *Context) bool {
	return c.Snap.IsCarrying()
}

func (p *DeliverPlan) Action(c *Context) (domain.Action, bool) {
	if p.detour == nil && !p.detourTaken {
		p.considerDetour(c)
	}
	if p.detour != nil {
		if action, ok, keep := p.followDetour(c); keep {
			return action, ok
		}
	}

	me := c.Snap.Self.Pos
	if c.Snap.Grid.IsDelivery(me) {
		return domain.PutdownAction(), true
	}
	target, ok := c.NearestDelivery(me)
	if !ok {
		p.fail()
		return domain.Action{}, false
	}
	action, st := p.stepToward(c, target)
	return action, st == stepMoving
}

// considerDetour ищет посылку, крюк за которой выгоднее доставки с запасом DetourMargin
func (p *DeliverPlan) considerDetour(c *Context) {
	deliverNow := DeliverUtility(c)
	if math.IsInf(deliverNow, 1) {
		return
	}
	var best *detour
	for _, it := range PickupCandidates(c) {
		if !uncontested(c, it) {
			continue
		}
		steps, ok := c.PathLen(c.Snap.Self.Pos, it.Pos)
		if !ok || steps > c.Settings.DetourMaxSteps {
			continue
		}
		u := PickupUtility(c, it)
		if u <= deliverNow+c.Settings.DetourMargin {
			continue
		}
		if best == nil || u > best.utility {
			best = &detour{itemID: it.ID, pos: it.Pos, utility: u}
		}
	}
	if best == nil {
		return
	}

	c.log(p.name).WithFields(logrus.Fields{
		"item":    best.itemID,
		"utility": best.utility,
		"deliver": deliverNow,
	}).Debug("detour started")
	p.detour = best
	p.detourTaken = true
	p.clearPath()
	c.Coord.AnnounceIntention(best.itemID, best.pos, best.utility)
}

// followDetour возвращает keep=false, если крюк брошен
func (p *DeliverPlan) followDetour(c *Context) (domain.Action, bool, bool) {
	d := p.detour
	it, known := c.Snap.Item(d.itemID)

	// Нет в модели или уже у кого-то: посылки нет. Если она просто вне
	// обзора, модель ее помнит, и мы идем к последней известной точке.
	if !known || !it.IsFree() || c.Coord.IsYielded(d.itemID) {
		p.abandon(c, "item gone")
		return domain.Action{}, false, false
	}
	d.pos = it.Pos
	d.utility = PickupUtility(c, it)
	if DeliverUtility(c) > d.utility+c.Settings.DetourAbandonMargin {
		p.abandon(c, "delivering is better")
		return domain.Action{}, false, false
	}

	if c.Snap.Self.Pos == d.pos {
		return domain.PickupAction(d.itemID, d.pos), true, true
	}
	action, st := p.stepToward(c, d.pos)
	if st == stepNoPath {
		c.Ban(ItemKey(d.itemID))
		p.abandon(c, "no path")
		return domain.Action{}, false, false
	}
	return action, st == stepMoving, true
}

func (p *DeliverPlan) abandon(c *Context, reason string) {
	c.log(p.name).WithFields(logrus.Fields{
		"item":   p.detour.itemID,
		"reason": reason,
	}).Debug("detour abandoned")
	p.detour = nil
	p.clearPath()
	c.Coord.ClearIntention()
}

func (p *DeliverPlan) Feedback(c *Context, a domain.Action, ok bool) {
	switch {
	case a.Type == domain.ActionPickup && p.detour != nil:
		if !ok {
			c.Ban(ItemKey(p.detour.itemID))
			p.failures++
		}
		p.detour = nil
		p.clearPath()
		c.Coord.ClearIntention()
	case a.Type == domain.ActionPutdown && ok:
		p.detourTaken = false
	case !ok:
		p.fail()
	}
}

func (p *DeliverPlan) Stop() {
	p.base.Stop()
	p.detour = nil
	p.detourTaken = false
}
