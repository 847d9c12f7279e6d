package plans

import (
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/internal/handover"
	"deliveroo-agent/pkg/mapgen"
	"testing"
)

func bottleneckConfig(t *testing.T) *domain.HandoverConfig {
	t.Helper()
	w := newWorld(t, mapgen.Bottleneck, pos(0, 0))
	g := w.store.Grid()
	cfg := handover.NewAnalyzer(g, w.finder).ShouldUseHandover(g.Spawns, g.Deliveries)
	if cfg == nil {
		t.Fatal("bottleneck map must produce a handover config")
	}
	return cfg
}

func handoverWorld(t *testing.T, role domain.Role, self domain.Position) *world {
	t.Helper()
	w := newWorld(t, mapgen.Bottleneck, self)
	w.coord = &fakeCoord{
		partner: "2",
		mode:    domain.ModeHandover,
		role:    role,
		cfg:     bottleneckConfig(t),
	}
	return w
}

func TestCollectorEligibility(t *testing.T) {
	w := handoverWorld(t, domain.RoleCollector, pos(0, 1))
	if !NewCollectorPlan(w.cfg).Eligible(w.ctx()) {
		t.Error("collector plan must be eligible for the collector role")
	}
	if NewCourierPlan(w.cfg).Eligible(w.ctx()) {
		t.Error("courier plan must not be eligible for the collector role")
	}
}

func TestCollectorPicksUp(t *testing.T) {
	w := handoverWorld(t, domain.RoleCollector, pos(1, 0))
	w.items([]domain.Item{item("p1", 1, 0, 20)})
	a, ok := NewCollectorPlan(w.cfg).Action(w.ctx())
	if !ok || a.Type != domain.ActionPickup || a.ItemID != "p1" {
		t.Fatalf("expected pickup, got %s", a)
	}
}

func TestCollectorIgnoresItemsOnHandoverTile(t *testing.T) {
	w := handoverWorld(t, domain.RoleCollector, pos(2, 1))
	w.items([]domain.Item{item("p1", 3, 1, 20)})
	p := NewCollectorPlan(w.cfg)
	a, ok := p.Action(w.ctx())
	if ok && a.Target != nil && *a.Target == pos(3, 1) {
		t.Fatal("collector must not walk to items already on the handover tile")
	}
}

func TestCollectorWaitsForPartnerBeforePutdown(t *testing.T) {
	w := handoverWorld(t, domain.RoleCollector, pos(3, 1))
	w.items(nil, "c1")
	w.agents(domain.AgentSnapshot{ID: "2", Pos: pos(6, 1)})
	p := NewCollectorPlan(w.cfg)

	if _, ok := p.Action(w.ctx()); ok {
		t.Fatal("collector must wait while the partner is away")
	}

	w.agents(domain.AgentSnapshot{ID: "2", Pos: pos(4, 1)})
	a, ok := p.Action(w.ctx())
	if !ok || a.Type != domain.ActionPutdown {
		t.Fatalf("expected putdown with partner adjacent, got %s", a)
	}
}

func TestCollectorStagesWhenTileOccupied(t *testing.T) {
	w := handoverWorld(t, domain.RoleCollector, pos(1, 1))
	w.items(nil, "c1")
	w.agents(domain.AgentSnapshot{ID: "2", Pos: pos(3, 1)})
	p := NewCollectorPlan(w.cfg)

	// Стоянка коллектора - (2,1)
	a, ok := p.Action(w.ctx())
	expectMove(t, a, ok, domain.DirRight)

	w.moveTo(pos(2, 1))
	if _, ok := p.Action(w.ctx()); ok {
		t.Fatal("collector must stay on its stage while the tile is occupied")
	}
}

func TestCollectorBypassWhenStuck(t *testing.T) {
	w := handoverWorld(t, domain.RoleCollector, pos(3, 1))
	w.cfg.StuckTicks = 2
	w.items(nil, "c1")
	p := NewCollectorPlan(w.cfg)

	p.Action(w.ctx())
	p.Action(w.ctx())
	if p.Bypass() {
		t.Fatal("bypass too early")
	}
	a, ok := p.Action(w.ctx())
	if !p.Bypass() {
		t.Fatal("expected bypass after stuck ticks")
	}
	expectMove(t, a, ok, domain.DirRight)
}

func TestCollectorHeadsToHandoverAtCapacity(t *testing.T) {
	w := handoverWorld(t, domain.RoleCollector, pos(2, 1))
	w.cfg.HandoverCapacity = 1
	w.items([]domain.Item{item("p2", 0, 0, 20)}, "c1")
	a, ok := NewCollectorPlan(w.cfg).Action(w.ctx())
	expectMove(t, a, ok, domain.DirRight)
}

func TestCourier(t *testing.T) {
	t.Run("waits on stage", func(t *testing.T) {
		w := handoverWorld(t, domain.RoleCourier, pos(4, 1))
		if _, ok := NewCourierPlan(w.cfg).Action(w.ctx()); ok {
			t.Fatal("courier must wait on its stage")
		}
	})

	t.Run("goes to stage", func(t *testing.T) {
		w := handoverWorld(t, domain.RoleCourier, pos(6, 1))
		a, ok := NewCourierPlan(w.cfg).Action(w.ctx())
		expectMove(t, a, ok, domain.DirLeft)
	})

	t.Run("moves in when item dropped", func(t *testing.T) {
		w := handoverWorld(t, domain.RoleCourier, pos(4, 1))
		w.items([]domain.Item{item("p1", 3, 1, 20)})
		a, ok := NewCourierPlan(w.cfg).Action(w.ctx())
		expectMove(t, a, ok, domain.DirLeft)
	})

	t.Run("waits while tile occupied", func(t *testing.T) {
		w := handoverWorld(t, domain.RoleCourier, pos(4, 1))
		w.items([]domain.Item{item("p1", 3, 1, 20)})
		w.agents(domain.AgentSnapshot{ID: "2", Pos: pos(3, 1)})
		if _, ok := NewCourierPlan(w.cfg).Action(w.ctx()); ok {
			t.Fatal("courier must not step onto an occupied tile")
		}
	})

	t.Run("picks up on tile", func(t *testing.T) {
		w := handoverWorld(t, domain.RoleCourier, pos(3, 1))
		w.items([]domain.Item{item("p1", 3, 1, 20)})
		a, ok := NewCourierPlan(w.cfg).Action(w.ctx())
		if !ok || a.Type != domain.ActionPickup {
			t.Fatalf("expected pickup, got %s", a)
		}
	})

	t.Run("delivers cargo", func(t *testing.T) {
		w := handoverWorld(t, domain.RoleCourier, pos(3, 1))
		w.items(nil, "c1")
		a, ok := NewCourierPlan(w.cfg).Action(w.ctx())
		expectMove(t, a, ok, domain.DirRight)
	})
}
