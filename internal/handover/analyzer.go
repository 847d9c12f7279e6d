// Package handover решает по статической карте, нужна ли агентам
// эстафета через узкое место вместо независимого сбора.
package handover

import (
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/internal/pathfinding"
	"deliveroo-agent/pkg/logger"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/sirupsen/logrus"
)

// SinglePathRatio - доля узких клеток в представительном пути, начиная с которой
// карта считается одним коридором. Метка информационная.
const SinglePathRatio = 0.8

type Analyzer struct {
	grid   *domain.Grid
	finder *pathfinding.Finder
}

func NewAnalyzer(g *domain.Grid, f *pathfinding.Finder) *Analyzer {
	return &Analyzer{grid: g, finder: f}
}

// ShouldUseHandover возвращает конфиг передачи или nil, если обязательного
// узкого места нет. Агенты при анализе игнорируются.
func (a *Analyzer) ShouldUseHandover(spawns, deliveries []domain.Position) *domain.HandoverConfig {
	log := logger.Log.WithFields(logrus.Fields{
		"component":  "handover_analyzer",
		"spawns":     len(spawns),
		"deliveries": len(deliveries),
	})

	// 1. Кратчайшие маршруты для всех пар (спавн, доставка)
	var routes [][]domain.Position
	for _, s := range spawns {
		for _, d := range deliveries {
			if r := a.route(s, d); r != nil {
				routes = append(routes, r)
			}
		}
	}

	// 2. Маршрутов нет совсем
	if len(routes) == 0 {
		log.Debug("No spawn->delivery routes, handover disabled")
		return nil
	}

	// 3. Сколько маршрутов проходит через каждую клетку (одна клетка - один раз на маршрут)
	counts := make(map[int]int)
	var order []domain.Position // порядок первого появления
	for _, r := range routes {
		inRoute := make(map[int]bool, len(r))
		for _, p := range r {
			key := a.grid.Index(p)
			if inRoute[key] {
				continue
			}
			inRoute[key] = true
			if counts[key] == 0 {
				order = append(order, p)
			}
			counts[key]++
		}
	}

	var hard []domain.Position
	for _, p := range order {
		if counts[a.grid.Index(p)] == len(routes) {
			hard = append(hard, p)
		}
	}

	// 4. Только настоящие коридоры
	var chokepoints []domain.Position
	for _, p := range hard {
		if len(a.grid.Neighbors(p)) <= 2 {
			chokepoints = append(chokepoints, p)
		}
	}

	// 5. Есть несколько реальных маршрутов - делим зоны
	if len(chokepoints) == 0 {
		log.WithField("hard_bottlenecks", len(hard)).Debug("No chokepoint on every route, handover disabled")
		return nil
	}

	// 6. Представительные точки и середина пути между ними
	repSpawn := closestToCentroid(spawns)
	repDelivery := closestToCentroid(deliveries)
	repRoute := a.route(repSpawn, repDelivery)
	if repRoute == nil {
		return nil
	}
	// Середина считается по всему проходу, вместе со стартовой клеткой
	walk := append([]domain.Position{repSpawn}, repRoute...)
	mid := walk[len(walk)/2]

	// 7. Ближайшая к середине узкая клетка, первая найденная при равенстве
	tile := chokepoints[0]
	bestDist := tile.Manhattan(mid)
	for _, p := range chokepoints[1:] {
		if d := p.Manhattan(mid); d < bestDist {
			tile, bestDist = p, d
		}
	}

	// 8. Метка
	reason := domain.ReasonBottleneck
	if float64(len(hard)) >= SinglePathRatio*float64(len(repRoute)) {
		reason = domain.ReasonSinglePath
	}

	// 9. Финальная проверка, иначе остаемся в NORMAL
	if !a.admissible(tile, repSpawn, repDelivery) {
		log.WithField("tile", tile).Info("Handover tile rejected by admissibility check")
		return nil
	}

	cfg := &domain.HandoverConfig{
		Spawn:    repSpawn,
		Delivery: repDelivery,
		Tile:     tile,
		Reason:   reason,
	}
	cfg.CollectorStage, cfg.CourierStage = a.stages(tile, repSpawn, repDelivery)

	log.WithFields(logrus.Fields{
		"tile":        tile,
		"reason":      reason,
		"routes":      len(routes),
		"chokepoints": len(chokepoints),
	}).Info("Handover strategy selected")
	return cfg
}

// route - путь в том виде, в каком его отдает поиск (без стартовой клетки), nil если пути нет
func (a *Analyzer) route(from, to domain.Position) []domain.Position {
	path := a.finder.FindPath(from, to, pathfinding.IgnoreAll(), nil)
	if len(path) == 0 {
		return nil
	}
	return path
}

func (a *Analyzer) admissible(tile, spawn, delivery domain.Position) bool {
	if !a.grid.IsReachable(tile) || len(a.grid.Neighbors(tile)) < 2 {
		return false
	}
	if len(a.finder.FindPath(spawn, tile, pathfinding.IgnoreAll(), nil)) == 0 {
		return false
	}
	return len(a.finder.FindPath(tile, delivery, pathfinding.IgnoreAll(), nil)) > 0
}

// stages выбирает соседей узкой клетки: ближайшего к спавну и ближайшего к доставке
func (a *Analyzer) stages(tile, spawn, delivery domain.Position) (collector, courier domain.Position) {
	neighbors := a.grid.Neighbors(tile)
	collector = a.nearest(neighbors, spawn, domain.Position{X: -1, Y: -1})
	courier = a.nearest(neighbors, delivery, collector)
	return collector, courier
}

func (a *Analyzer) nearest(candidates []domain.Position, target, exclude domain.Position) domain.Position {
	best := domain.Position{}
	bestDist := -1
	for _, c := range candidates {
		if c == exclude {
			continue
		}
		d, ok := a.finder.Distance(c, target, pathfinding.IgnoreAll(), nil)
		if !ok {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// closestToCentroid - точка набора, ближайшая к его центроиду (первая при равенстве)
func closestToCentroid(points []domain.Position) domain.Position {
	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = orb.Point{float64(p.X), float64(p.Y)}
	}
	centroid, _ := planar.CentroidArea(mp)

	best := points[0]
	bestDist := planar.DistanceSquared(centroid, mp[0])
	for i := 1; i < len(mp); i++ {
		if d := planar.DistanceSquared(centroid, mp[i]); d < bestDist {
			best, bestDist = points[i], d
		}
	}
	return best
}
