package plans

import (
	"context"
	"deliveroo-agent/internal/domain"
	"math"

	"github.com/sirupsen/logrus"
)

// ExternalPlanner - внешний символьный планировщик.
// Ошибка и пустой ответ считаются обычной неудачей плана.
type ExternalPlanner interface {
	Plan(ctx context.Context, start domain.Position, item domain.Item, delivery domain.Position) ([]domain.Action, error)
}

// DeliberativePlan исполняет последовательность действий от внешнего планировщика
type DeliberativePlan struct {
	base
	planner ExternalPlanner
	queue   []domain.Action
	itemID  string
	done    bool
}

func NewDeliberativePlan(planner ExternalPlanner, cfg Settings) *DeliberativePlan {
	return &DeliberativePlan{base: newBase("deliberate", cfg), planner: planner}
}

// Done - очередь действий исполнена до конца
func (p *DeliberativePlan) Done() bool { return p.done }

func (p *DeliberativePlan) Eligible(c *Context) bool {
	if p.planner == nil {
		return false
	}
	if len(p.queue) > 0 {
		return true
	}
	if c.Snap.IsCarrying() {
		return false
	}
	_, ok := p.pickItem(c)
	return ok
}

func (p *DeliberativePlan) pickItem(c *Context) (domain.Item, bool) {
	var best domain.Item
	bestU, found := math.Inf(-1), false
	for _, it := range PickupCandidates(c) {
		u := PickupUtility(c, it)
		if u <= 0 || math.IsInf(u, -1) {
			continue
		}
		if !found || u > bestU {
			best, bestU, found = it, u, true
		}
	}
	return best, found
}

func (p *DeliberativePlan) Action(c *Context) (domain.Action, bool) {
	if len(p.queue) == 0 && !p.request(c) {
		return domain.Action{}, false
	}

	next := p.queue[0]
	if next.Type == domain.ActionMove {
		me := c.Snap.Self.Pos
		to := me.Step(next.Direction)
		if _, busy := c.Snap.AgentAt(to); busy || !c.Snap.Grid.IsReachable(to) {
			p.queue = nil
			p.fail()
			return domain.Action{}, false
		}
		next = domain.MoveAction(me, next.Direction)
	}
	return next, true
}

// request запрашивает новый план для лучшей посылки
func (p *DeliberativePlan) request(c *Context) bool {
	it, ok := p.pickItem(c)
	if !ok {
		return false
	}
	_, delivery, ok := c.DeliveryDistance(it.Pos)
	if !ok {
		c.Ban(ItemKey(it.ID))
		p.fail()
		return false
	}

	parent := c.Ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx := parent
	if c.Settings.PlannerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, c.Settings.PlannerTimeout)
		defer cancel()
	}

	actions, err := p.planner.Plan(ctx, c.Snap.Self.Pos, it, delivery)
	if err != nil || len(actions) == 0 {
		c.log(p.name).WithFields(logrus.Fields{"item": it.ID}).WithError(err).Debug("planner failed")
		c.Ban(ItemKey(it.ID))
		p.fail()
		return false
	}
	p.queue = actions
	p.itemID = it.ID
	p.done = false
	return true
}

func (p *DeliberativePlan) Feedback(c *Context, a domain.Action, ok bool) {
	if !ok {
		p.queue = nil
		p.fail()
		if p.itemID != "" {
			c.Ban(ItemKey(p.itemID))
		}
		return
	}
	if len(p.queue) > 0 {
		p.queue = p.queue[1:]
	}
	if len(p.queue) == 0 {
		p.done = true
	}
}

func (p *DeliberativePlan) Stop() {
	p.base.Stop()
	p.queue = nil
	p.itemID = ""
	p.done = false
}
