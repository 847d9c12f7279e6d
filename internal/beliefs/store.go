// Package beliefs хранит модель мира агента.
//
// Все записи идут через методы Store, планы читают только Snapshot,
// снятый один раз за тик.
package beliefs

import (
	"deliveroo-agent/internal/domain"
	"math"
	"sort"
	"sync"
	"time"
)

// Settings - параметры сервера, влияющие на восприятие
type Settings struct {
	ObservationRange int
	// DecayInterval - как часто награда невидимой посылки падает на 1. 0 - не падает.
	DecayInterval    time.Duration
	MovementDuration time.Duration
}

type Store struct {
	mu sync.RWMutex

	selfID    string
	self      domain.AgentSnapshot
	hasSelf   bool
	grid      *domain.Grid
	settings  Settings
	hasConfig bool

	items  map[string]domain.Item
	agents map[string]domain.AgentSnapshot
	tick   int
}

func NewStore(selfID string) *Store {
	return &Store{
		selfID: selfID,
		items:  make(map[string]domain.Item),
		agents: make(map[string]domain.AgentSnapshot),
	}
}

func (s *Store) SelfID() string { return s.selfID }

func (s *Store) SetGrid(g *domain.Grid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = g
}

func (s *Store) Grid() *domain.Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid
}

func (s *Store) SetSettings(cfg Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = cfg
	s.hasConfig = true
}

func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Ready - есть карта, настройки и собственная позиция
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid != nil && s.hasConfig && s.hasSelf
}

// UpdateSelf обновляет данные о себе из перцепта
func (s *Store) UpdateSelf(me domain.AgentSnapshot, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	me.ID = s.selfID
	me.SeenAt = now
	s.self = me
	s.hasSelf = true
}

func (s *Store) Self() (domain.AgentSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.self, s.hasSelf
}

// UpdateItems принимает пачку видимых посылок.
// Посылки, которые должны быть видны (в радиусе), но отсутствуют, удаляются.
func (s *Store) UpdateItems(visible []domain.Item, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(visible))
	for _, it := range visible {
		it.SeenAt = now
		s.items[it.ID] = it
		seen[it.ID] = true
	}

	for id, it := range s.items {
		if seen[id] {
			continue
		}
		if s.inRange(it.Pos) || (!it.IsFree() && it.CarriedBy != s.selfID) {
			delete(s.items, id)
		}
	}
}

// UpdateAgents принимает пачку видимых агентов (себя в ней быть не должно)
func (s *Store) UpdateAgents(visible []domain.AgentSnapshot, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(visible))
	for _, a := range visible {
		if a.ID == s.selfID {
			continue
		}
		a.SeenAt = now
		a.Reported = false
		s.agents[a.ID] = a
		seen[a.ID] = true
	}

	for id, a := range s.agents {
		if !seen[id] && s.inRange(a.Pos) {
			delete(s.agents, id)
		}
	}
}

// MergeReported добавляет агентов со слов партнера.
// Свежие собственные наблюдения не перезаписываются.
func (s *Store) MergeReported(reported []domain.AgentSnapshot, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range reported {
		if a.ID == s.selfID {
			continue
		}
		if cur, ok := s.agents[a.ID]; ok && !cur.Reported && !cur.SeenAt.Before(now) {
			continue
		}
		a.SeenAt = now
		a.Reported = true
		s.agents[a.ID] = a
	}
}

// ApplyMove фиксирует подтвержденный транспортом шаг
func (s *Store) ApplyMove(pos domain.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self.Pos = pos
}

// ApplyPickup помечает посылки как несомые нами
func (s *Store) ApplyPickup(ids []string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		it, ok := s.items[id]
		if !ok {
			it = domain.Item{ID: id}
		}
		it.CarriedBy = s.selfID
		it.Pos = s.self.Pos
		it.SeenAt = now
		s.items[id] = it
	}
	s.self.Carried = s.carriedCountLocked()
}

// ApplyPutdown снимает посылки с агента: сданные удаляются, брошенные остаются на клетке
func (s *Store) ApplyPutdown(ids []string, delivered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		it, ok := s.items[id]
		if !ok {
			continue
		}
		if delivered {
			delete(s.items, id)
			continue
		}
		it.CarriedBy = ""
		it.Pos = s.self.Pos
		s.items[id] = it
	}
	s.self.Carried = s.carriedCountLocked()
}

// Advance переводит модель на следующий тик и возвращает его номер
func (s *Store) Advance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick++
	return s.tick
}

func (s *Store) Tick() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// Reset забывает динамическое состояние, карта и настройки остаются
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.items)
	clear(s.agents)
	s.hasSelf = false
	s.self = domain.AgentSnapshot{}
	s.tick = 0
}

// Snapshot снимает неизменяемую копию модели и вычищает протухшие посылки
func (s *Store) Snapshot(now time.Time) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		Tick:             s.tick,
		Now:              now,
		Self:             s.self,
		Grid:             s.grid,
		ObservationRange: s.settings.ObservationRange,
	}

	for id, it := range s.items {
		it.Reward = s.decayed(it, now)
		if it.Reward <= 0 {
			delete(s.items, id)
			continue
		}
		snap.Items = append(snap.Items, it)
	}
	sort.Slice(snap.Items, func(i, j int) bool { return snap.Items[i].ID < snap.Items[j].ID })

	for _, a := range s.agents {
		snap.Agents = append(snap.Agents, a)
	}
	sort.Slice(snap.Agents, func(i, j int) bool { return snap.Agents[i].ID < snap.Agents[j].ID })

	snap.Self.Carried = 0
	for _, it := range snap.Items {
		if it.CarriedBy == s.selfID {
			snap.Self.Carried++
		}
	}
	return snap
}

// decayed - награда с учетом времени с последнего наблюдения
func (s *Store) decayed(it domain.Item, now time.Time) float64 {
	if s.settings.DecayInterval <= 0 || it.SeenAt.IsZero() || !now.After(it.SeenAt) {
		return it.Reward
	}
	steps := math.Floor(float64(now.Sub(it.SeenAt)) / float64(s.settings.DecayInterval))
	return it.Reward - steps
}

func (s *Store) inRange(p domain.Position) bool {
	if !s.hasSelf || s.settings.ObservationRange <= 0 {
		return false
	}
	return s.self.Pos.Manhattan(p) < s.settings.ObservationRange
}

func (s *Store) carriedCountLocked() int {
	n := 0
	for _, it := range s.items {
		if it.CarriedBy == s.selfID {
			n++
		}
	}
	return n
}
