package handover

import (
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/internal/pathfinding"
	"deliveroo-agent/pkg/logger"
	"deliveroo-agent/pkg/mapgen"
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func analyze(t *testing.T, rows []string) (*domain.Grid, *domain.HandoverConfig) {
	t.Helper()
	g := mapgen.MustParse(rows...)
	a := NewAnalyzer(g, pathfinding.NewFinder(g))
	return g, a.ShouldUseHandover(g.Spawns, g.Deliveries)
}

func TestShouldUseHandover_SingleCorridor(t *testing.T) {
	g, cfg := analyze(t, mapgen.Corridor)
	if cfg == nil {
		t.Fatal("Expected handover config for a single corridor")
	}
	if cfg.Tile.Y != 0 {
		t.Errorf("Handover tile %v should lie on the corridor", cfg.Tile)
	}
	if n := len(g.Neighbors(cfg.Tile)); n != 2 {
		t.Errorf("Handover tile should have exactly 2 neighbors, got %d", n)
	}
	if cfg.Tile != (domain.Position{X: 3, Y: 0}) {
		t.Errorf("Expected midpoint (3,0), got %v", cfg.Tile)
	}
	if cfg.Reason != domain.ReasonSinglePath {
		t.Errorf("Expected single_path, got %s", cfg.Reason)
	}
	if cfg.CollectorStage != (domain.Position{X: 2, Y: 0}) || cfg.CourierStage != (domain.Position{X: 4, Y: 0}) {
		t.Errorf("Unexpected stages %v / %v", cfg.CollectorStage, cfg.CourierStage)
	}
}

func TestShouldUseHandover_Bottleneck(t *testing.T) {
	g, cfg := analyze(t, mapgen.Bottleneck)
	if cfg == nil {
		t.Fatal("Expected handover config for bottleneck map")
	}
	if cfg.Tile != (domain.Position{X: 3, Y: 1}) {
		t.Errorf("Expected handover tile (3,1), got %v", cfg.Tile)
	}
	if len(g.Neighbors(cfg.Tile)) < 2 {
		t.Error("Handover tile must have at least 2 neighbors")
	}
	if cfg.Spawn != (domain.Position{X: 0, Y: 1}) || cfg.Delivery != (domain.Position{X: 6, Y: 1}) {
		t.Errorf("Unexpected representative endpoints %v -> %v", cfg.Spawn, cfg.Delivery)
	}
	if cfg.CollectorStage != (domain.Position{X: 2, Y: 1}) || cfg.CourierStage != (domain.Position{X: 4, Y: 1}) {
		t.Errorf("Unexpected stages %v / %v", cfg.CollectorStage, cfg.CourierStage)
	}
}

func TestShouldUseHandover_TwoCorridors(t *testing.T) {
	if _, cfg := analyze(t, mapgen.TwoCorridors); cfg != nil {
		t.Errorf("Expected no handover with two disjoint routes, got %+v", cfg)
	}
}

func TestShouldUseHandover_OpenMap(t *testing.T) {
	if _, cfg := analyze(t, mapgen.Open); cfg != nil {
		t.Errorf("Expected no handover on an open map, got %+v", cfg)
	}
}

func TestShouldUseHandover_NoRoutes(t *testing.T) {
	// Спавн и доставка разделены стеной
	if _, cfg := analyze(t, []string{"S.#.D"}); cfg != nil {
		t.Errorf("Expected none when no route exists, got %+v", cfg)
	}
}

func TestClosestToCentroid(t *testing.T) {
	pts := []domain.Position{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 4, Y: 1}, {X: 6, Y: 1}}
	// Центроид (5, 0.5): (4,1) и (6,1) равноудалены, побеждает первый
	if got := closestToCentroid(pts); got != (domain.Position{X: 4, Y: 1}) {
		t.Errorf("closestToCentroid = %v, want (4,1)", got)
	}
}

func TestRouteExcludesStart(t *testing.T) {
	g := mapgen.MustParse(mapgen.Corridor...)
	a := NewAnalyzer(g, pathfinding.NewFinder(g))
	from, to := domain.Position{X: 0, Y: 0}, domain.Position{X: 6, Y: 0}

	r := a.route(from, to)
	if len(r) != 6 {
		t.Fatalf("Expected 6 cells, got %d: %v", len(r), r)
	}
	if r[0] == from {
		t.Errorf("Route must not contain the start cell %v", from)
	}
	if r[len(r)-1] != to {
		t.Errorf("Route must end at %v, got %v", to, r[len(r)-1])
	}
	if r := a.route(from, from); r != nil {
		t.Errorf("Expected nil route to itself, got %v", r)
	}
}
