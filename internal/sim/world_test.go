package sim

import (
	"context"
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/pkg/logger"
	"deliveroo-agent/pkg/mapgen"
	"errors"
	"math/rand"
	"os"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newWorld(t *testing.T, rows []string, s Settings) *World {
	t.Helper()
	types, err := mapgen.ParseTypes(rows)
	if err != nil {
		t.Fatalf("ParseTypes: %v", err)
	}
	w, err := NewWorld(types, s, NewClock(t0))
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return w
}

func pos(x, y int) domain.Position { return domain.Position{X: x, Y: y} }

func TestAddAgentValidation(t *testing.T) {
	w := newWorld(t, []string{"..#"}, Settings{})

	if err := w.AddAgent("a", pos(0, 0)); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}
	tests := []struct {
		name string
		id   string
		at   domain.Position
		want error
	}{
		{"duplicate", "a", pos(1, 0), ErrDuplicateAgent},
		{"wall", "b", pos(2, 0), ErrUnreachable},
		{"occupied", "b", pos(0, 0), ErrOccupied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.AddAgent(tt.id, tt.at); !errors.Is(err, tt.want) {
				t.Errorf("AddAgent() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMoveRespectsWallsAndAgents(t *testing.T) {
	w := newWorld(t, []string{"...#"}, Settings{})
	_ = w.AddAgent("a", pos(0, 0))
	_ = w.AddAgent("b", pos(2, 0))
	ctx := context.Background()
	a := w.Client("a")

	got, ok, err := a.Move(ctx, domain.DirRight)
	if err != nil || !ok || got != pos(1, 0) {
		t.Fatalf("Move right = %v %v %v, want (1,0)", got, ok, err)
	}
	if _, ok, _ := a.Move(ctx, domain.DirRight); ok {
		t.Error("Move into another agent must fail")
	}
	if _, ok, _ := w.Client("b").Move(ctx, domain.DirRight); ok {
		t.Error("Move into a wall must fail")
	}
	if _, ok, _ := a.Move(ctx, domain.DirUp); ok {
		t.Error("Move out of bounds must fail")
	}
}

func TestPickupAndDeliver(t *testing.T) {
	w := newWorld(t, []string{"..D"}, Settings{})
	_ = w.AddAgent("a", pos(0, 0))
	id, _ := w.AddItem(pos(0, 0), 10)
	ctx := context.Background()
	c := w.Client("a")

	if _, ok, _ := c.Putdown(ctx); ok {
		t.Error("Putdown with empty hands must fail")
	}
	ids, ok, err := c.Pickup(ctx, "")
	if err != nil || !ok || len(ids) != 1 || ids[0] != id {
		t.Fatalf("Pickup = %v %v %v", ids, ok, err)
	}
	if w.Carrier(id) != "a" {
		t.Fatalf("Carrier = %q, want a", w.Carrier(id))
	}
	if _, ok, _ := c.Pickup(ctx, ""); ok {
		t.Error("Pickup on an empty tile must fail")
	}

	_, _, _ = c.Move(ctx, domain.DirRight)
	// бросаем не на доставке: посылка остается на клетке
	if _, ok, _ := c.Putdown(ctx); !ok {
		t.Fatal("Putdown must succeed")
	}
	if w.Score("a") != 0 || w.Carrier(id) != "" {
		t.Fatalf("dropped item must stay on the floor, score=%v", w.Score("a"))
	}
	_, _, _ = c.Pickup(ctx, "")
	_, _, _ = c.Move(ctx, domain.DirRight)
	if _, ok, _ := c.Putdown(ctx); !ok {
		t.Fatal("Putdown on delivery must succeed")
	}
	if w.Score("a") != 10 {
		t.Errorf("Score = %v, want 10", w.Score("a"))
	}
}

func TestPerceptHonoursObservationRange(t *testing.T) {
	w := newWorld(t, []string{"......."}, Settings{ObservationRange: 3})
	_ = w.AddAgent("a", pos(0, 0))
	_ = w.AddAgent("near", pos(2, 0))
	_ = w.AddAgent("far", pos(3, 0))
	nearItem, _ := w.AddItem(pos(2, 0), 5)
	_, _ = w.AddItem(pos(6, 0), 5)

	p, err := w.Percept("a")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Agents) != 1 || p.Agents[0].ID != "near" {
		t.Errorf("Agents = %+v, want only near", p.Agents)
	}
	if len(p.Items) != 1 || p.Items[0].ID != nearItem {
		t.Errorf("Items = %+v, want only %s", p.Items, nearItem)
	}
	if _, err := w.Percept("ghost"); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("Percept(ghost) = %v", err)
	}
}

func TestRewardDecay(t *testing.T) {
	w := newWorld(t, []string{"..."}, Settings{DecayInterval: time.Second})
	_ = w.AddAgent("a", pos(0, 0))
	_, _ = w.AddItem(pos(1, 0), 2)

	w.Clock().Advance(1500 * time.Millisecond)
	p, _ := w.Percept("a")
	if len(p.Items) != 1 || p.Items[0].Reward != 1 {
		t.Fatalf("Items = %+v, want reward 1", p.Items)
	}

	w.Clock().Advance(time.Second)
	p, _ = w.Percept("a")
	if len(p.Items) != 0 {
		t.Errorf("decayed item must be pruned, got %+v", p.Items)
	}
}

func TestSpawnItems(t *testing.T) {
	w := newWorld(t, []string{"SS.S"}, Settings{})
	rng := rand.New(rand.NewSource(1))

	ids := w.SpawnItems(rng, 2, 10)
	if len(ids) != 2 {
		t.Fatalf("SpawnItems = %v, want 2 items", ids)
	}
	if more := w.SpawnItems(rng, 2, 10); len(more) != 0 {
		t.Errorf("limit reached, got %v", more)
	}
	if more := w.SpawnItems(rng, 5, 10); len(more) != 1 {
		t.Errorf("only one free spawn left, got %v", more)
	}
}
