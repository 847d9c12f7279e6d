package plans

import (
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/internal/zones"
	"math"
)

// DeliverUtility - выгода от доставки прямо сейчас.
// +Inf на клетке доставки, -Inf если до доставки нет пути.
func DeliverUtility(c *Context) float64 {
	snap := c.Snap
	if snap.Grid.IsDelivery(snap.Self.Pos) {
		return math.Inf(1)
	}
	steps, _, ok := c.DeliveryDistance(snap.Self.Pos)
	if !ok {
		return math.Inf(-1)
	}
	count := float64(snap.CarriedCount())
	return snap.CarriedReward() - float64(steps)*c.Settings.DecayPerStep*count
}

// Baseline - с чем сравнивается подбор: без груза это 0
func Baseline(c *Context) float64 {
	if !c.Snap.IsCarrying() {
		return 0
	}
	return DeliverUtility(c)
}

// PickupUtility - выгода от подбора посылки и доставки всего груза.
// Расстояния - длины путей, поэтому перекрытый маршрут дает -Inf.
func PickupUtility(c *Context, it domain.Item) float64 {
	if !it.IsFree() {
		return math.Inf(-1)
	}
	snap := c.Snap
	toItem, ok := c.PathLen(snap.Self.Pos, it.Pos)
	if !ok {
		return math.Inf(-1)
	}
	toDelivery, _, ok := c.DeliveryDistance(it.Pos)
	if !ok {
		return math.Inf(-1)
	}
	count := float64(snap.CarriedCount() + 1)
	return it.Reward + snap.CarriedReward() - float64(toItem+toDelivery)*c.Settings.DecayPerStep*count
}

// contested - чужой агент (не партнер) явно ближе к посылке
func contested(c *Context, it domain.Item) bool {
	snap := c.Snap
	margin := c.Settings.ContestMargin * float64(snap.ObservationRange)
	mine := float64(snap.Self.Pos.Manhattan(it.Pos))
	for _, a := range snap.Agents {
		if a.ID == c.Partner() {
			continue
		}
		if float64(a.Pos.Manhattan(it.Pos))+margin < mine {
			return true
		}
	}
	return false
}

// uncontested - никто из агентов, включая партнера, не ближе нас
func uncontested(c *Context, it domain.Item) bool {
	mine := c.Snap.Self.Pos.Manhattan(it.Pos)
	for _, a := range c.Snap.Agents {
		if a.Pos.Manhattan(it.Pos) <= mine {
			return false
		}
	}
	return true
}

// PickupCandidates - свободные посылки без бана, не уступленные партнеру
// и не занятые чужими. Если в своей зоне есть кандидаты, берутся только они.
func PickupCandidates(c *Context) []domain.Item {
	var out []domain.Item
	for _, it := range c.Snap.FreeItems() {
		if c.Banned(ItemKey(it.ID)) || c.Coord.IsYielded(it.ID) || contested(c, it) {
			continue
		}
		out = append(out, it)
	}

	zone := c.Coord.Zone()
	if len(zone) == 0 {
		return out
	}
	var inZone []domain.Item
	for _, it := range out {
		if zones.Contains(zone, c.Snap.Grid.Spawns, it.Pos) {
			inZone = append(inZone, it)
		}
	}
	if len(inZone) > 0 {
		return inZone
	}
	return out
}
