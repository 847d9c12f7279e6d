package plans

import (
	"deliveroo-agent/internal/domain"
	"math"

	"github.com/sirupsen/logrus"
)

// PickupPlan ведет к лучшей посылке, пока агент ничего не несет
type PickupPlan struct {
	base
	target string

	// выбор кэшируется на снимок: Eligible и Action зовутся в одном тике
	chosenFor *Context
	chosen    domain.Item
	utility   float64
	found     bool

	coord Coordinator
}

func NewPickupPlan(cfg Settings) *PickupPlan {
	return &PickupPlan{base: newBase("pickup", cfg)}
}

func (p *PickupPlan) Target() string { return p.target }

func (p *PickupPlan) Eligible(c *Context) bool {
	if c.Snap.IsCarrying() {
		return false
	}
	_, _, ok := p.choose(c)
	return ok
}

// choose держится за текущую цель, пока она остается кандидатом
// и выгоднее базовой линии; иначе берет лучшую
func (p *PickupPlan) choose(c *Context) (domain.Item, float64, bool) {
	if p.chosenFor == c {
		return p.chosen, p.utility, p.found
	}
	p.chosenFor = c

	baseline := Baseline(c)
	best, bestU, found := domain.Item{}, math.Inf(-1), false
	for _, it := range PickupCandidates(c) {
		u := PickupUtility(c, it)
		if u <= baseline || math.IsInf(u, -1) {
			continue
		}
		if it.ID == p.target {
			best, bestU, found = it, u, true
			break
		}
		if !found || u > bestU {
			best, bestU, found = it, u, true
		}
	}
	p.chosen, p.utility, p.found = best, bestU, found
	return best, bestU, found
}

func (p *PickupPlan) Action(c *Context) (domain.Action, bool) {
	it, u, ok := p.choose(c)
	if !ok {
		return domain.Action{}, false
	}
	if it.ID != p.target {
		c.log(p.name).WithFields(logrus.Fields{
			"item":    it.ID,
			"utility": u,
		}).Debug("pickup target selected")
		p.target = it.ID
		p.clearPath()
	}
	p.coord = c.Coord
	c.Coord.AnnounceIntention(it.ID, it.Pos, u)

	if c.Snap.Self.Pos == it.Pos {
		return domain.PickupAction(it.ID, it.Pos), true
	}
	action, st := p.stepToward(c, it.Pos)
	if st == stepNoPath {
		c.Ban(ItemKey(it.ID))
	}
	return action, st == stepMoving
}

func (p *PickupPlan) Feedback(c *Context, a domain.Action, ok bool) {
	if ok {
		return
	}
	p.fail()
	if a.Type == domain.ActionPickup {
		c.Ban(ItemKey(a.ItemID))
		p.target = ""
	}
}

func (p *PickupPlan) Stop() {
	p.base.Stop()
	p.target = ""
	p.chosenFor = nil
	if p.coord != nil {
		p.coord.ClearIntention()
	}
}
