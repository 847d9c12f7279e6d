package plans

import (
	"deliveroo-agent/internal/domain"
	"math"
	"testing"
)

func TestDeliverUtility(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		self domain.Position
		want float64
	}{
		{"four steps", []string{"S.....D"}, pos(2, 0), 10 - 4*0.5},
		{"on delivery", []string{"S.....D"}, pos(6, 0), math.Inf(1)},
		{"no path", []string{"S.#...D"}, pos(0, 0), math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld(t, tt.rows, tt.self)
			w.items(nil, "c1")
			if got := DeliverUtility(w.ctx()); got != tt.want {
				t.Errorf("DeliverUtility() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBaselineWithoutCargo(t *testing.T) {
	w := newWorld(t, []string{"S.....D"}, pos(6, 0))
	if got := Baseline(w.ctx()); got != 0 {
		t.Errorf("Baseline() = %v, want 0 when not carrying", got)
	}
}

func TestPickupUtility(t *testing.T) {
	w := newWorld(t, []string{".....D"}, pos(0, 0))
	w.items([]domain.Item{item("p1", 2, 0, 10), {ID: "p2", Pos: pos(3, 0), Reward: 10, CarriedBy: "other"}})
	c := w.ctx()

	p1, _ := c.Snap.Item("p1")
	if got, want := PickupUtility(c, p1), 10-float64(2+3)*0.5; got != want {
		t.Errorf("PickupUtility(p1) = %v, want %v", got, want)
	}
	p2, _ := c.Snap.Item("p2")
	if got := PickupUtility(c, p2); !math.IsInf(got, -1) {
		t.Errorf("carried item must score -Inf, got %v", got)
	}
}

func TestPickupUtilityCountsCargo(t *testing.T) {
	w := newWorld(t, []string{".....D"}, pos(0, 0))
	w.items([]domain.Item{item("p1", 2, 0, 10)}, "c1")
	c := w.ctx()

	p1, _ := c.Snap.Item("p1")
	want := 10 + 10 - float64(2+3)*0.5*2
	if got := PickupUtility(c, p1); got != want {
		t.Errorf("PickupUtility() = %v, want %v", got, want)
	}
}

func TestPickupCandidates(t *testing.T) {
	rows := []string{"S.........D"}

	t.Run("contested by stranger", func(t *testing.T) {
		w := newWorld(t, rows, pos(0, 0))
		w.items([]domain.Item{item("p1", 5, 0, 10)})
		w.agents(domain.AgentSnapshot{ID: "9", Pos: pos(6, 0)})
		if got := PickupCandidates(w.ctx()); len(got) != 0 {
			t.Errorf("expected no candidates, got %v", got)
		}
	})

	t.Run("partner does not contest", func(t *testing.T) {
		w := newWorld(t, rows, pos(0, 0))
		w.coord = &fakeCoord{partner: "9"}
		w.items([]domain.Item{item("p1", 5, 0, 10)})
		w.agents(domain.AgentSnapshot{ID: "9", Pos: pos(6, 0)})
		if got := PickupCandidates(w.ctx()); len(got) != 1 {
			t.Errorf("expected one candidate, got %v", got)
		}
	})

	t.Run("banned and yielded", func(t *testing.T) {
		w := newWorld(t, rows, pos(0, 0))
		w.coord = &fakeCoord{yielded: map[string]bool{"p2": true}}
		w.items([]domain.Item{item("p1", 1, 0, 10), item("p2", 2, 0, 10), item("p3", 3, 0, 10)})
		c := w.ctx()
		c.Ban(ItemKey("p1"))
		got := PickupCandidates(c)
		if len(got) != 1 || got[0].ID != "p3" {
			t.Errorf("expected only p3, got %v", got)
		}
	})

	t.Run("zone restriction", func(t *testing.T) {
		w := newWorld(t, []string{"S...S...D"}, pos(2, 0))
		w.coord = &fakeCoord{partner: "7", zone: []domain.Position{pos(4, 0)}}
		w.items([]domain.Item{item("west", 1, 0, 10), item("east", 5, 0, 10)})
		got := PickupCandidates(w.ctx())
		if len(got) != 1 || got[0].ID != "east" {
			t.Errorf("expected only east, got %v", got)
		}
	})

	t.Run("empty zone falls back", func(t *testing.T) {
		w := newWorld(t, []string{"S...S...D"}, pos(2, 0))
		w.coord = &fakeCoord{partner: "7", zone: []domain.Position{pos(4, 0)}}
		w.items([]domain.Item{item("west", 1, 0, 10)})
		if got := PickupCandidates(w.ctx()); len(got) != 1 {
			t.Errorf("expected fallback to all candidates, got %v", got)
		}
	})
}
