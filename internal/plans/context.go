// Package plans содержит планы агента: каждый по снимку мира
// выдает одно действие за тик или ничего.
package plans

import (
	"context"
	"deliveroo-agent/internal/banlist"
	"deliveroo-agent/internal/beliefs"
	"deliveroo-agent/internal/coordination"
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/internal/pathfinding"
	"deliveroo-agent/pkg/logger"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Coordinator - то, что планы знают о партнере
type Coordinator interface {
	PartnerID() string
	Mode() domain.Mode
	Role() domain.Role
	Handover() *domain.HandoverConfig
	Zone() []domain.Position
	IsYielded(itemID string) bool
	AnnounceIntention(itemID string, at domain.Position, utility float64)
	ClearIntention()
	ResolveBlock(next domain.Position) coordination.Decision
}

// Settings - параметры оценки и поведения планов
type Settings struct {
	// DecayPerStep - потеря награды за шаг на каждую несомую посылку
	DecayPerStep float64
	// ContestMargin умножается на радиус наблюдения
	ContestMargin       float64
	DetourMargin        float64
	DetourAbandonMargin float64
	DetourMaxSteps      int
	HandoverCapacity    int
	StuckTicks          int
	MaxFailures         int
	PlannerTimeout      time.Duration
}

// Context - все, что план получает на один тик
type Context struct {
	Ctx      context.Context
	Snap     *beliefs.Snapshot
	Finder   *pathfinding.Finder
	Bans     *banlist.BanList[string]
	Coord    Coordinator
	Settings Settings

	deliveries map[domain.Position]deliveryHit
}

type deliveryHit struct {
	steps  int
	target domain.Position
	ok     bool
}

func NewContext(ctx context.Context, snap *beliefs.Snapshot, f *pathfinding.Finder, bans *banlist.BanList[string], coord Coordinator, cfg Settings) *Context {
	if coord == nil {
		coord = Solo{}
	}
	return &Context{
		Ctx:        ctx,
		Snap:       snap,
		Finder:     f,
		Bans:       bans,
		Coord:      coord,
		Settings:   cfg,
		deliveries: make(map[domain.Position]deliveryHit),
	}
}

func ItemKey(id string) string         { return "item:" + id }
func TileKey(p domain.Position) string { return fmt.Sprintf("tile:%d,%d", p.X, p.Y) }

func (c *Context) Partner() string { return c.Coord.PartnerID() }

// Policy - политика препятствий для движения: партнер проходим,
// встречу с ним решает протокол столкновений
func (c *Context) Policy() pathfinding.Policy {
	if p := c.Partner(); p != "" {
		return pathfinding.Ignoring(p)
	}
	return pathfinding.BlockAll()
}

func (c *Context) Banned(key string) bool {
	return c.Bans != nil && c.Bans.IsBanned(key, c.Snap.Tick)
}

func (c *Context) Ban(key string) {
	if c.Bans != nil {
		c.Bans.Ban(key, c.Snap.Tick)
	}
}

// PathLen - длина пути с учетом всех агентов
func (c *Context) PathLen(from, to domain.Position) (int, bool) {
	return c.Finder.Distance(from, to, pathfinding.BlockAll(), c.Snap.Agents)
}

// DeliveryDistance - путь до ближайшей точки доставки. Кэшируется на тик.
func (c *Context) DeliveryDistance(from domain.Position) (int, domain.Position, bool) {
	if hit, ok := c.deliveries[from]; ok {
		return hit.steps, hit.target, hit.ok
	}
	hit := deliveryHit{}
	for _, d := range c.Snap.Grid.Deliveries {
		steps, ok := c.PathLen(from, d)
		if ok && (!hit.ok || steps < hit.steps) {
			hit = deliveryHit{steps: steps, target: d, ok: true}
		}
	}
	c.deliveries[from] = hit
	return hit.steps, hit.target, hit.ok
}

// NearestDelivery - цель движения к доставке. В отличие от DeliveryDistance
// партнер не считается препятствием.
func (c *Context) NearestDelivery(from domain.Position) (domain.Position, bool) {
	var best domain.Position
	bestSteps, found := 0, false
	for _, d := range c.Snap.Grid.Deliveries {
		steps, ok := c.Finder.Distance(from, d, c.Policy(), c.Snap.Agents)
		if ok && (!found || steps < bestSteps) {
			best, bestSteps, found = d, steps, true
		}
	}
	return best, found
}

func (c *Context) log(plan string) *logrus.Entry {
	return logger.For("plans", c.Snap.Self.ID).WithField("plan", plan)
}

// Solo - координатор одиночного агента: партнера нет
type Solo struct{}

func (Solo) PartnerID() string                { return "" }
func (Solo) Mode() domain.Mode                { return domain.ModeNormal }
func (Solo) Role() domain.Role                { return domain.RoleNone }
func (Solo) Handover() *domain.HandoverConfig { return nil }
func (Solo) Zone() []domain.Position          { return nil }
func (Solo) IsYielded(string) bool            { return false }
func (Solo) AnnounceIntention(string, domain.Position, float64) {}
func (Solo) ClearIntention() {}
func (Solo) ResolveBlock(domain.Position) coordination.Decision {
	return coordination.DecisionReroute
}
