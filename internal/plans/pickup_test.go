package plans

import (
	"deliveroo-agent/internal/coordination"
	"deliveroo-agent/internal/domain"
	"testing"
)

func TestPickupPlanWalksAndPicks(t *testing.T) {
	w := newWorld(t, []string{".....D"}, pos(0, 0))
	coord := &fakeCoord{}
	w.coord = coord
	w.items([]domain.Item{item("p1", 2, 0, 10)})
	p := NewPickupPlan(w.cfg)

	c := w.ctx()
	if !p.Eligible(c) {
		t.Fatal("plan must be eligible")
	}
	a, ok := p.Action(c)
	expectMove(t, a, ok, domain.DirRight)
	if p.Target() != "p1" {
		t.Errorf("target = %q, want p1", p.Target())
	}
	if len(coord.announced) == 0 || coord.announced[0] != "p1" {
		t.Errorf("intention not announced: %v", coord.announced)
	}

	w.moveTo(pos(1, 0))
	a, ok = p.Action(w.ctx())
	expectMove(t, a, ok, domain.DirRight)

	w.moveTo(pos(2, 0))
	a, ok = p.Action(w.ctx())
	if !ok || a.Type != domain.ActionPickup || a.ItemID != "p1" {
		t.Fatalf("expected pickup p1, got %s ok=%v", a, ok)
	}
}

func TestPickupPlanEligibility(t *testing.T) {
	t.Run("carrying", func(t *testing.T) {
		w := newWorld(t, []string{".....D"}, pos(0, 0))
		w.items([]domain.Item{item("p1", 2, 0, 10)}, "c1")
		if NewPickupPlan(w.cfg).Eligible(w.ctx()) {
			t.Error("pickup must not be eligible while carrying")
		}
	})

	t.Run("not worth it", func(t *testing.T) {
		w := newWorld(t, []string{"..........D"}, pos(0, 0))
		w.items([]domain.Item{item("p1", 4, 0, 2)})
		if NewPickupPlan(w.cfg).Eligible(w.ctx()) {
			t.Error("item below baseline must be skipped")
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		w := newWorld(t, []string{"..#..D"}, pos(0, 0))
		w.items([]domain.Item{item("p1", 4, 0, 50)})
		if NewPickupPlan(w.cfg).Eligible(w.ctx()) {
			t.Error("unreachable item must be skipped")
		}
	})
}

func TestPickupPlanFailureBansItem(t *testing.T) {
	w := newWorld(t, []string{".....D"}, pos(2, 0))
	w.items([]domain.Item{item("p1", 2, 0, 10)})
	p := NewPickupPlan(w.cfg)

	c := w.ctx()
	a, _ := p.Action(c)
	p.Feedback(c, a, false)
	if p.Failures() != 1 {
		t.Errorf("failures = %d, want 1", p.Failures())
	}
	if p.Eligible(w.ctx()) {
		t.Error("failed item must be banned")
	}
}

func TestPickupPlanKeepsTarget(t *testing.T) {
	w := newWorld(t, []string{"S........D"}, pos(4, 0))
	w.items([]domain.Item{item("a", 3, 0, 10), item("b", 5, 0, 10)})
	p := NewPickupPlan(w.cfg)
	p.Action(w.ctx())
	first := p.Target()

	// Более выгодная посылка не сбивает текущую цель
	w.items([]domain.Item{item("a", 3, 0, 10), item("b", 5, 0, 10), item("c", 6, 0, 30)})
	p.Action(w.ctx())
	if p.Target() != first {
		t.Errorf("target changed from %s to %s", first, p.Target())
	}

	// Цель пропала: выбирается новая
	w.items([]domain.Item{item("c", 6, 0, 30)})
	p.Action(w.ctx())
	if p.Target() != "c" {
		t.Errorf("target = %s, want c", p.Target())
	}
}

func TestPickupPlanCollisionWait(t *testing.T) {
	w := newWorld(t, []string{"S.....D", "......."}, pos(0, 0))
	coord := &fakeCoord{partner: "7", decision: coordination.DecisionWait}
	w.coord = coord
	w.items([]domain.Item{item("p1", 2, 0, 20)})
	w.agents(domain.AgentSnapshot{ID: "7", Pos: pos(1, 0)})
	p := NewPickupPlan(w.cfg)

	if _, ok := p.Action(w.ctx()); ok {
		t.Fatal("expected wait while partner blocks the path")
	}
	if coord.blocks != 1 {
		t.Errorf("ResolveBlock calls = %d, want 1", coord.blocks)
	}

	coord.decision = coordination.DecisionReroute
	a, ok := p.Action(w.ctx())
	expectMove(t, a, ok, domain.DirUp)
}

func TestPickupPlanStopClearsIntention(t *testing.T) {
	w := newWorld(t, []string{".....D"}, pos(0, 0))
	coord := &fakeCoord{partner: "7"}
	w.coord = coord
	w.items([]domain.Item{item("p1", 2, 0, 10)})
	p := NewPickupPlan(w.cfg)
	p.Action(w.ctx())

	p.Stop()
	if p.Target() != "" {
		t.Error("stop must forget the target")
	}
	if coord.cleared != 1 {
		t.Errorf("ClearIntention calls = %d, want 1", coord.cleared)
	}
}
