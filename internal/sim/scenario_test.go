package sim

import (
	"context"
	"deliveroo-agent/internal/config"
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/pkg/mapgen"
	"testing"
	"time"
)

func worldSettings() Settings {
	return Settings{
		ObservationRange: 5,
		MovementDuration: 500 * time.Millisecond,
	}
}

func agentConfig(id string, cooperative bool) config.Config {
	cfg := config.Default()
	cfg.AgentID = id
	cfg.Cooperative = cooperative
	return cfg
}

func spawn(t *testing.T, s *Session, id string, cooperative bool, at domain.Position) {
	t.Helper()
	if _, err := s.Spawn(agentConfig(id, cooperative), at); err != nil {
		t.Fatalf("Spawn(%s): %v", id, err)
	}
}

// Один агент без партнера: подобрать посылку и сдать ее
func TestScenarioSoloPickupAndDeliver(t *testing.T) {
	w := newWorld(t, []string{".....D"}, worldSettings())
	item, _ := w.AddItem(pos(2, 0), 10)
	s := NewSession(w)
	defer s.Close()
	spawn(t, s, "1", false, pos(0, 0))

	var actions []domain.ActionType
	ctx := context.Background()
	for i := 0; i < 12 && w.Score("1") == 0; i++ {
		for _, d := range s.Step(ctx) {
			if d.Acted && d.OK {
				actions = append(actions, d.Action.Type)
			}
		}
	}

	want := []domain.ActionType{
		domain.ActionMove, domain.ActionMove, domain.ActionPickup,
		domain.ActionMove, domain.ActionMove, domain.ActionMove, domain.ActionPutdown,
	}
	if len(actions) != len(want) {
		t.Fatalf("actions = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("actions = %v, want %v", actions, want)
		}
	}
	if w.Score("1") != 10 {
		t.Errorf("Score = %v, want 10", w.Score("1"))
	}
	if w.Carrier(item) != "" {
		t.Errorf("item %s must be delivered", item)
	}
	if p, _ := w.Position("1"); p != pos(5, 0) {
		t.Errorf("agent at %v, want delivery (5,0)", p)
	}
}

// Узкое место: сборщик оставляет посылку на клетке передачи, курьер сдает
func TestScenarioHandoverRelay(t *testing.T) {
	w := newWorld(t, mapgen.Bottleneck, worldSettings())
	item, _ := w.AddItem(pos(1, 0), 10)
	s := NewSession(w)
	defer s.Close()
	spawn(t, s, "1", true, pos(0, 1))
	spawn(t, s, "2", true, pos(7, 1))
	collector, courier := s.Agents()[0], s.Agents()[1]
	tile := pos(3, 1)

	ctx := context.Background()
	relayed := false
	for i := 0; i < 40 && w.Score("2") == 0; i++ {
		for _, d := range s.Step(ctx) {
			if d.Acted && d.OK && d.Action.Type == domain.ActionPutdown && w.Score("1") == 0 && w.Score("2") == 0 {
				// единственный putdown сборщика - на клетке передачи рядом с курьером
				cp, _ := w.Position("1")
				kp, _ := w.Position("2")
				if cp != tile {
					t.Fatalf("collector dropped at %v, want handover tile %v", cp, tile)
				}
				if kp.Manhattan(tile) > 1 {
					t.Fatalf("courier at %v is too far from the handover tile", kp)
				}
				relayed = true
			}
		}
	}

	if got := collector.Coordination().Role(); got != domain.RoleCollector {
		t.Errorf("agent 1 role = %v, want collector", got)
	}
	if got := courier.Coordination().Role(); got != domain.RoleCourier {
		t.Errorf("agent 2 role = %v, want courier", got)
	}
	if collector.Coordination().Mode() != domain.ModeHandover {
		t.Errorf("mode = %v, want handover", collector.Coordination().Mode())
	}
	if !relayed {
		t.Error("item was never left on the handover tile")
	}
	if w.Score("2") != 10 || w.Score("1") != 0 {
		t.Errorf("scores = %v, courier must deliver the relayed item", s.Scores())
	}
	if w.Carrier(item) != "" {
		t.Errorf("item %s must be delivered", item)
	}
}

// Обе стороны хотят одну посылку с равной выгодой: уступает больший ID
func TestScenarioIntentionConflict(t *testing.T) {
	w := newWorld(t, mapgen.Open, worldSettings())
	item, _ := w.AddItem(pos(3, 1), 10)
	s := NewSession(w)
	defer s.Close()
	spawn(t, s, "3", true, pos(1, 1))
	spawn(t, s, "7", true, pos(5, 1))
	a3, a7 := s.Agents()[0], s.Agents()[1]

	ctx := context.Background()
	yielded7, yielded3 := false, false
	for i := 0; i < 15 && w.Carrier(item) == ""; i++ {
		s.Step(ctx)
		yielded7 = yielded7 || a7.Coordination().IsYielded(item)
		yielded3 = yielded3 || a3.Coordination().IsYielded(item)
		if w.Carrier(item) == "7" {
			t.Fatal("agent 7 picked up the item it had to yield")
		}
	}

	if !yielded7 {
		t.Error("agent 7 never yielded the contested item")
	}
	if yielded3 {
		t.Error("agent 3 must not yield")
	}
	if got := w.Carrier(item); got != "3" {
		t.Errorf("Carrier = %q, want 3", got)
	}
}

func TestSessionSoloWithoutItemsExplores(t *testing.T) {
	w := newWorld(t, mapgen.Open, worldSettings())
	s := NewSession(w)
	defer s.Close()
	spawn(t, s, "1", false, pos(3, 1))

	if err := s.Run(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	if p, _ := w.Position("1"); p == pos(3, 1) {
		t.Error("idle agent must explore")
	}
	if s.Ticks() != 5 {
		t.Errorf("Ticks = %d, want 5", s.Ticks())
	}
}
