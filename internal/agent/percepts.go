package agent

import (
	"deliveroo-agent/internal/beliefs"
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/internal/pathfinding"
	"fmt"

	"github.com/sirupsen/logrus"
)

// --- Перцепты сервера ---

// OnMap строит карту и поиск пути. Вызывается один раз за сессию.
func (a *Agent) OnMap(types [][]domain.TileType) error {
	g, err := domain.NewGrid(types)
	if err != nil {
		return fmt.Errorf("agent %s map: %w", a.id, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.store.SetGrid(g)
	a.finder = pathfinding.NewFinder(g)
	a.log.WithFields(logrus.Fields{
		"width":      g.Width,
		"height":     g.Height,
		"spawns":     len(g.Spawns),
		"deliveries": len(g.Deliveries),
	}).Info("map loaded")
	return nil
}

// OnConfig принимает параметры сервера. Пустые поля берутся из конфига агента.
func (a *Agent) OnConfig(s beliefs.Settings) {
	if s.ObservationRange <= 0 {
		s.ObservationRange = a.cfg.ObservationRange
	}
	if s.MovementDuration <= 0 {
		s.MovementDuration = a.cfg.MovementDuration
	}
	a.store.SetSettings(s)
}

func (a *Agent) OnYou(me domain.AgentSnapshot) {
	a.store.UpdateSelf(me, a.clock())
}

func (a *Agent) OnItems(items []domain.Item) {
	a.store.UpdateItems(items, a.clock())
}

func (a *Agent) OnAgents(agents []domain.AgentSnapshot) {
	a.store.UpdateAgents(agents, a.clock())
}
