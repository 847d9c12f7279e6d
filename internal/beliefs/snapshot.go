package beliefs

import (
	"deliveroo-agent/internal/domain"
	"time"
)

// Snapshot - состояние мира на один тик. Планы его не меняют.
type Snapshot struct {
	Tick             int
	Now              time.Time
	Self             domain.AgentSnapshot
	Grid             *domain.Grid
	Items            []domain.Item          // по возрастанию ID
	Agents           []domain.AgentSnapshot // без себя, по возрастанию ID
	ObservationRange int
}

// Carried - посылки, которые несем мы
func (s *Snapshot) Carried() []domain.Item {
	var out []domain.Item
	for _, it := range s.Items {
		if it.CarriedBy == s.Self.ID {
			out = append(out, it)
		}
	}
	return out
}

func (s *Snapshot) CarriedCount() int { return len(s.Carried()) }

func (s *Snapshot) IsCarrying() bool { return s.CarriedCount() > 0 }

func (s *Snapshot) CarriedReward() float64 {
	total := 0.0
	for _, it := range s.Carried() {
		total += it.Reward
	}
	return total
}

// FreeItems - посылки, лежащие на земле
func (s *Snapshot) FreeItems() []domain.Item {
	var out []domain.Item
	for _, it := range s.Items {
		if it.IsFree() {
			out = append(out, it)
		}
	}
	return out
}

func (s *Snapshot) Item(id string) (domain.Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return domain.Item{}, false
}

// FreeItemsAt - посылки на земле в клетке p
func (s *Snapshot) FreeItemsAt(p domain.Position) []domain.Item {
	var out []domain.Item
	for _, it := range s.Items {
		if it.IsFree() && it.Pos == p {
			out = append(out, it)
		}
	}
	return out
}

func (s *Snapshot) Agent(id string) (domain.AgentSnapshot, bool) {
	for _, a := range s.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return domain.AgentSnapshot{}, false
}

// AgentAt возвращает агента (кроме себя) в клетке p
func (s *Snapshot) AgentAt(p domain.Position) (domain.AgentSnapshot, bool) {
	for _, a := range s.Agents {
		if a.Pos == p {
			return a, true
		}
	}
	return domain.AgentSnapshot{}, false
}

// InRange - клетка в радиусе наблюдения
func (s *Snapshot) InRange(p domain.Position) bool {
	return s.ObservationRange > 0 && s.Self.Pos.Manhattan(p) < s.ObservationRange
}
