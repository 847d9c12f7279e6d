package plans

import (
	"context"
	"deliveroo-agent/internal/domain"
	"errors"
	"testing"
)

type fakePlanner struct {
	calls   int
	actions []domain.Action
	err     error
}

func (f *fakePlanner) Plan(_ context.Context, _ domain.Position, _ domain.Item, _ domain.Position) ([]domain.Action, error) {
	f.calls++
	return f.actions, f.err
}

func TestDeliberativePlanRunsQueue(t *testing.T) {
	w := newWorld(t, []string{"S...D"}, pos(0, 0))
	w.items([]domain.Item{item("p1", 1, 0, 20)})
	planner := &fakePlanner{actions: []domain.Action{
		{Type: domain.ActionMove, Direction: domain.DirRight},
		{Type: domain.ActionPickup},
	}}
	p := NewDeliberativePlan(planner, w.cfg)

	c := w.ctx()
	if !p.Eligible(c) {
		t.Fatal("plan must be eligible with a planner and a candidate")
	}
	a, ok := p.Action(c)
	expectMove(t, a, ok, domain.DirRight)
	if a.Target == nil || *a.Target != pos(1, 0) {
		t.Errorf("move target = %v, want (1,0)", a.Target)
	}
	p.Feedback(c, a, true)

	w.moveTo(pos(1, 0))
	c = w.ctx()
	a, ok = p.Action(c)
	if !ok || a.Type != domain.ActionPickup {
		t.Fatalf("expected pickup, got %s", a)
	}
	p.Feedback(c, a, true)

	if !p.Done() {
		t.Error("plan must be done after the last action")
	}
	if planner.calls != 1 {
		t.Errorf("planner calls = %d, want 1", planner.calls)
	}
}

func TestDeliberativePlanFailure(t *testing.T) {
	w := newWorld(t, []string{"S...D"}, pos(0, 0))
	w.items([]domain.Item{item("p1", 1, 0, 20)})
	p := NewDeliberativePlan(&fakePlanner{err: errors.New("timeout")}, w.cfg)

	c := w.ctx()
	if _, ok := p.Action(c); ok {
		t.Fatal("failed planning must yield no action")
	}
	if p.Failures() != 1 {
		t.Errorf("failures = %d, want 1", p.Failures())
	}
	if p.Eligible(w.ctx()) {
		t.Error("item must be banned after planner failure")
	}
}

func TestDeliberativePlanDisabled(t *testing.T) {
	w := newWorld(t, []string{"S...D"}, pos(0, 0))
	w.items([]domain.Item{item("p1", 1, 0, 20)})
	if NewDeliberativePlan(nil, w.cfg).Eligible(w.ctx()) {
		t.Error("plan without planner must never be eligible")
	}
}
