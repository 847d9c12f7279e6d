// Package agent - оркестратор одного агента: принимает перцепты,
// раз в тик выбирает действие и отправляет его в транспорт.
//
// Жизненный цикл:
//  1. New -> создание убеждений, координации и планов.
//  2. OnMap/OnConfig/OnYou/OnItems/OnAgents -> перцепты от сервера.
//  3. Step (или Run в горутине) -> один тик: сообщения партнера,
//     таймеры протокола, выбор действия, отправка, обратная связь.
//  4. Stop/Destroy -> завершение сессии.
package agent

import (
	"context"
	"deliveroo-agent/internal/banlist"
	"deliveroo-agent/internal/beliefs"
	"deliveroo-agent/internal/config"
	"deliveroo-agent/internal/coordination"
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/internal/intentions"
	"deliveroo-agent/internal/pathfinding"
	"deliveroo-agent/internal/plans"
	"deliveroo-agent/pkg/api"
	"deliveroo-agent/pkg/logger"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrNoAgentID = errors.New("agent id is required")

// Transport - примитивы действий сервера.
// ok=false - сервер отказал, err - сбой связи. Оба случая для плана просто неудача.
type Transport interface {
	Move(ctx context.Context, dir domain.Direction) (domain.Position, bool, error)
	Pickup(ctx context.Context, itemID string) ([]string, bool, error)
	Putdown(ctx context.Context) ([]string, bool, error)
}

// Peer - канал сообщений с партнером (network.Endpoint или network.WSClient)
type Peer interface {
	Send(env api.Envelope) error
	Inbox() <-chan api.Envelope
}

// Decision - итог одного тика, для логов и тестов
type Decision struct {
	Tick   int
	Goal   intentions.Goal
	Action domain.Action
	Acted  bool
	OK     bool
}

type Options struct {
	Config    config.Config
	Transport Transport
	// Peer == nil - агент работает один, даже если Config.Cooperative
	Peer      Peer
	Planner   plans.ExternalPlanner
	Clock     func() time.Time
	Observer  func(Decision)
}

type Agent struct {
	id        string
	cfg       config.Config
	transport Transport
	peer      Peer
	planner   plans.ExternalPlanner
	clock     func() time.Time
	observer  func(Decision)
	log       *logrus.Entry

	store     *beliefs.Store
	finder    *pathfinding.Finder
	bans      *banlist.BanList[string]
	coord     *coordination.Engine
	scheduler *intentions.Scheduler
	settings  plans.Settings

	mu        sync.Mutex
	stopOnce  sync.Once
	stopCh    chan struct{}
	destroyed bool
}

func New(opts Options) (*Agent, error) {
	cfg := opts.Config
	if cfg.AgentID == "" {
		return nil, ErrNoAgentID
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("agent %s: %w", cfg.AgentID, err)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	a := &Agent{
		id:        cfg.AgentID,
		cfg:       cfg,
		transport: opts.Transport,
		peer:      opts.Peer,
		planner:   opts.Planner,
		clock:     clock,
		observer:  opts.Observer,
		log:       logger.For("agent", cfg.AgentID),
		store:     beliefs.NewStore(cfg.AgentID),
		bans:      banlist.New[string](cfg.BanTicks),
		stopCh:    make(chan struct{}),
		settings: plans.Settings{
			DecayPerStep:        cfg.DecayPerStep,
			ContestMargin:       cfg.ContestMargin,
			DetourMargin:        cfg.DetourMargin,
			DetourAbandonMargin: cfg.DetourAbandonMargin,
			DetourMaxSteps:      cfg.DetourMaxSteps,
			HandoverCapacity:    cfg.HandoverCapacity,
			StuckTicks:          cfg.StuckTicks,
			MaxFailures:         cfg.MaxPlanFailures,
			PlannerTimeout:      cfg.PlannerTimeout,
		},
	}

	if cfg.Cooperative && opts.Peer != nil {
		a.coord = coordination.NewEngine(a.id, opts.Peer, a.store, coordination.Settings{
			HandshakeInterval:   cfg.HandshakeInterval(),
			CollisionTimeout:    cfg.CollisionTimeout,
			CollisionMaxRetries: cfg.CollisionMaxRetries,
		})
	}
	a.scheduler = a.newScheduler()
	return a, nil
}

// newScheduler регистрирует планы в порядке приоритетов целей
func (a *Agent) newScheduler() *intentions.Scheduler {
	s := intentions.NewScheduler(a.id)
	s.Register(intentions.GoalHandover, plans.NewCollectorPlan(a.settings))
	s.Register(intentions.GoalHandover, plans.NewCourierPlan(a.settings))
	if a.planner != nil {
		s.Register(intentions.GoalDeliberate, plans.NewDeliberativePlan(a.planner, a.settings))
	}
	s.Register(intentions.GoalDeliver, plans.NewDeliverPlan(a.settings))
	s.Register(intentions.GoalPickup, plans.NewPickupPlan(a.settings))
	s.Register(intentions.GoalExplore, plans.NewExplorePlan(a.settings))
	return s
}

// --- Доступ к состоянию ---

func (a *Agent) ID() string                         { return a.id }
func (a *Agent) Beliefs() *beliefs.Store            { return a.store }
func (a *Agent) Coordination() *coordination.Engine { return a.coord }
func (a *Agent) Scheduler() *intentions.Scheduler   { return a.scheduler }
func (a *Agent) Cooperative() bool                  { return a.coord != nil }

// IsReady - есть карта, настройки, своя позиция, а при кооперации еще
// подтвержденный партнер и выбранный режим
func (a *Agent) IsReady() bool {
	if !a.store.Ready() {
		return false
	}
	return a.coord == nil || a.coord.Ready()
}

// Step выполняет один тик. Ошибки не прерывают цикл: все сводится к неудаче плана.
func (a *Agent) Step(ctx context.Context) Decision {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.destroyed {
		return Decision{}
	}

	now := a.clock()
	tick := a.store.Advance()
	a.drainInbox(now)

	snap := a.store.Snapshot(now)
	if a.coord != nil {
		a.coord.Tick(snap)
	}
	a.bans.Purge(tick)

	d := Decision{Tick: tick}
	if !a.IsReady() {
		return d
	}

	pc := plans.NewContext(ctx, snap, a.finder, a.bans, a.coordinator(), a.settings)

	if a.coord != nil && a.coord.TakeYield() {
		a.scheduler.StopCurrent("yielded to partner")
	}

	if a.coord != nil && a.coord.YieldRequested() {
		act, ok := a.coord.YieldMove(snap)
		if ok {
			d.Goal = "yield"
			d.Action, d.Acted = act, true
			d.OK = a.dispatch(ctx, act)
			a.coord.FinishYield()
			a.observe(d)
			return d
		}
	}

	act, ok := a.pickNextAction(pc)
	if cur := a.scheduler.Current(); cur != nil {
		d.Goal = cur.Goal
	}
	if !ok {
		a.observe(d)
		return d
	}

	d.Action, d.Acted = act, true
	d.OK = a.dispatch(ctx, act)
	a.scheduler.Feedback(pc, act, d.OK)
	a.observe(d)
	return d
}

// PickNextAction выбирает действие по текущим убеждениям, не отправляя его
func (a *Agent) PickNextAction(ctx context.Context) (domain.Action, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.destroyed || !a.IsReady() {
		return domain.Action{}, false
	}
	snap := a.store.Snapshot(a.clock())
	return a.pickNextAction(plans.NewContext(ctx, snap, a.finder, a.bans, a.coordinator(), a.settings))
}

// pickNextAction ловит панику плана: намерение снимается, тик пропускается
func (a *Agent) pickNextAction(pc *plans.Context) (act domain.Action, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.log.WithField("panic", r).Error("plan panicked, intention stopped")
			a.scheduler.StopCurrent("panic")
			act, ok = domain.Action{}, false
		}
	}()
	return a.scheduler.Next(pc)
}

// coordinator - nil-интерфейс для одиночного агента, план подставит Solo
func (a *Agent) coordinator() plans.Coordinator {
	if a.coord == nil {
		return nil
	}
	return a.coord
}

func (a *Agent) drainInbox(now time.Time) {
	if a.peer == nil {
		return
	}
	for {
		select {
		case env, ok := <-a.peer.Inbox():
			if !ok {
				return
			}
			if a.coord != nil {
				a.coord.Handle(env, now)
			}
		default:
			return
		}
	}
}

func (a *Agent) observe(d Decision) {
	if d.Acted {
		a.log.WithFields(logrus.Fields{
			"tick":   d.Tick,
			"goal":   d.Goal,
			"action": d.Action.String(),
			"ok":     d.OK,
		}).Debug("action dispatched")
	}
	if a.observer != nil {
		a.observer(d)
	}
}

// Run крутит Step с периодом хода сервера до Stop или отмены контекста
func (a *Agent) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.MovementDuration)
	defer ticker.Stop()

	a.log.Info("agent loop started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.stopCh:
			a.log.Info("agent loop stopped")
			return nil
		case <-ticker.C:
			a.Step(ctx)
		}
	}
}

// Stop - единственное штатное завершение цикла Run
func (a *Agent) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
}

// Reset забывает сессию: убеждения, баны, партнера и состояние планов.
// Карта и настройки сервера сохраняются.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.scheduler.Reset()
	a.scheduler = a.newScheduler()
	a.store.Reset()
	a.bans.Clear()
	if a.coord != nil {
		a.coord.Reset()
	}
	a.log.Info("agent reset")
}

// Destroy останавливает цикл и протоколы, после него Step ничего не делает
func (a *Agent) Destroy() {
	a.Stop()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.scheduler.Reset()
	if a.coord != nil {
		a.coord.Destroy()
	}
	a.destroyed = true
}
