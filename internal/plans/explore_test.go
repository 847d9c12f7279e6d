package plans

import (
	"deliveroo-agent/internal/domain"
	"testing"
)

func TestExplorePlanPicksLeastVisitedSpawn(t *testing.T) {
	w := newWorld(t, []string{"S...S"}, pos(2, 0))
	p := NewExplorePlan(w.cfg)

	// Равные посещения и расстояния: берется первый спавн
	a, ok := p.Action(w.ctx())
	expectMove(t, a, ok, domain.DirLeft)

	w.moveTo(pos(1, 0))
	p.Action(w.ctx())
	w.moveTo(pos(0, 0))
	p.Action(w.ctx())
	if p.Visits(pos(0, 0)) != 1 {
		t.Fatalf("visits(0,0) = %d, want 1", p.Visits(pos(0, 0)))
	}

	// (0,0) уже посещен, теперь цель - второй спавн
	a, ok = p.Action(w.ctx())
	expectMove(t, a, ok, domain.DirRight)
}

func TestExplorePlanZone(t *testing.T) {
	w := newWorld(t, []string{"S...S"}, pos(2, 0))
	w.coord = &fakeCoord{partner: "7", zone: []domain.Position{pos(4, 0)}}
	p := NewExplorePlan(w.cfg)

	a, ok := p.Action(w.ctx())
	expectMove(t, a, ok, domain.DirRight)
}

func TestExplorePlanBansUnreachable(t *testing.T) {
	w := newWorld(t, []string{"S#..S"}, pos(2, 0))
	p := NewExplorePlan(w.cfg)

	c := w.ctx()
	if _, ok := p.Action(c); ok {
		t.Fatal("isolated spawn cannot be reached")
	}
	if !c.Banned(TileKey(pos(0, 0))) {
		t.Fatal("unreachable spawn must be banned")
	}

	a, ok := p.Action(w.ctx())
	expectMove(t, a, ok, domain.DirRight)
}

func TestExplorePlanFallsBackToFloor(t *testing.T) {
	w := newWorld(t, []string{"...."}, pos(0, 0))
	p := NewExplorePlan(w.cfg)

	c := w.ctx()
	if !p.Eligible(c) {
		t.Fatal("explore is always eligible on a non-empty map")
	}
	a, ok := p.Action(c)
	expectMove(t, a, ok, domain.DirRight)
}
