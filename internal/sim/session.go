package sim

import (
	"context"
	"deliveroo-agent/internal/agent"
	"deliveroo-agent/internal/beliefs"
	"deliveroo-agent/internal/config"
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/internal/network"
	"deliveroo-agent/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Session - агенты в одном процессе поверх общего мира и in-memory шины.
// Агенты ходят по очереди в порядке добавления, каждый видит результат предыдущего.
type Session struct {
	world *World
	bus   *network.Bus
	log   *logrus.Entry

	agents    []*agent.Agent
	endpoints []*network.Endpoint
	ticks     int

	// BeforeTick вызывается перед ходом агентов, например для спавна посылок
	BeforeTick func(tick int)
	// OnDecision получает итог хода каждого агента
	OnDecision func(agentID string, d agent.Decision)
}

func NewSession(w *World) *Session {
	return &Session{
		world: w,
		bus:   network.NewBus(),
		log:   logger.Log.WithField("component", "sim"),
	}
}

func (s *Session) World() *World     { return s.world }
func (s *Session) Bus() *network.Bus { return s.bus }
func (s *Session) Ticks() int        { return s.ticks }

func (s *Session) Agents() []*agent.Agent { return s.agents }

// Spawn ставит агента в мир и отдает ему карту и настройки сервера.
// Кооперативный агент подключается к in-memory шине сессии.
func (s *Session) Spawn(cfg config.Config, pos domain.Position) (*agent.Agent, error) {
	if !cfg.Cooperative {
		return s.SpawnWithPeer(cfg, pos, nil)
	}
	ep := s.bus.Register(cfg.AgentID)
	a, err := s.SpawnWithPeer(cfg, pos, ep)
	if err != nil {
		ep.Close()
		return nil, err
	}
	s.endpoints = append(s.endpoints, ep)
	return a, nil
}

// SpawnWithPeer - то же, что Spawn, но с внешним каналом к партнеру (например, websocket)
func (s *Session) SpawnWithPeer(cfg config.Config, pos domain.Position, peer agent.Peer) (*agent.Agent, error) {
	if err := s.world.AddAgent(cfg.AgentID, pos); err != nil {
		return nil, err
	}

	a, err := agent.New(agent.Options{
		Config:    cfg,
		Transport: s.world.Client(cfg.AgentID),
		Peer:      peer,
		Clock:     s.world.Clock().Now,
	})
	if err != nil {
		return nil, err
	}
	if err := a.OnMap(s.world.Types()); err != nil {
		return nil, err
	}
	ws := s.world.Settings()
	a.OnConfig(beliefs.Settings{
		ObservationRange: ws.ObservationRange,
		DecayInterval:    ws.DecayInterval,
		MovementDuration: ws.MovementDuration,
	})

	s.agents = append(s.agents, a)
	return a, nil
}

// Step - один тик: часы, перцепты и ход каждого агента
func (s *Session) Step(ctx context.Context) []agent.Decision {
	s.ticks++
	s.world.Clock().Advance(s.world.Settings().MovementDuration)
	if s.BeforeTick != nil {
		s.BeforeTick(s.ticks)
	}

	decisions := make([]agent.Decision, 0, len(s.agents))
	for _, a := range s.agents {
		p, err := s.world.Percept(a.ID())
		if err != nil {
			s.log.WithError(err).Warn("percept failed")
			continue
		}
		a.OnYou(p.Self)
		a.OnItems(p.Items)
		a.OnAgents(p.Agents)
		d := a.Step(ctx)
		if s.OnDecision != nil {
			s.OnDecision(a.ID(), d)
		}
		decisions = append(decisions, d)
	}
	return decisions
}

// Run делает до ticks тиков или до отмены контекста
func (s *Session) Run(ctx context.Context, ticks int) error {
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Step(ctx)
	}
	return nil
}

// Scores - очки агентов по ID
func (s *Session) Scores() map[string]float64 {
	out := make(map[string]float64, len(s.agents))
	for _, a := range s.agents {
		out[a.ID()] = s.world.Score(a.ID())
	}
	return out
}

func (s *Session) Close() {
	for _, a := range s.agents {
		a.Destroy()
	}
	for _, ep := range s.endpoints {
		ep.Close()
	}
	s.log.WithFields(logrus.Fields{
		"ticks":  s.ticks,
		"agents": len(s.agents),
	}).Info("session closed")
}
