// Package coordination реализует протокол двух агентов-партнеров:
// поиск партнера, выбор режима, распределение ролей, разрешение
// конфликтов намерений и столкновений.
//
// Engine не потокобезопасен: его двигает цикл агента (Handle + Tick).
package coordination

import (
	"deliveroo-agent/internal/beliefs"
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/internal/handover"
	"deliveroo-agent/internal/pathfinding"
	"deliveroo-agent/internal/zones"
	"deliveroo-agent/pkg/api"
	"deliveroo-agent/pkg/logger"
	"time"

	"github.com/sirupsen/logrus"
)

// Outbox - канал отправки сообщений. Пустой To в конверте означает shout.
type Outbox interface {
	Send(env api.Envelope) error
}

type Settings struct {
	// HandshakeInterval - период повторного HANDSHAKE, AGENT_INFO и INTENTION
	HandshakeInterval   time.Duration
	CollisionTimeout    time.Duration
	CollisionMaxRetries int
}

type Engine struct {
	selfID   string
	out      Outbox
	store    *beliefs.Store
	settings Settings
	log      *logrus.Entry
	router   *Router

	now       time.Time
	destroyed bool

	// Партнер
	partnerID  string
	confirmed  bool
	partnerPos domain.Position
	announced  domain.Position // своя позиция из последнего HANDSHAKE/ACK
	lastShout  time.Time
	lastInfo   time.Time
	lastRole   time.Time

	// Режим
	modeChosen   bool
	mode         domain.Mode
	handover     *domain.HandoverConfig
	role         domain.Role
	partnerRole  domain.Role
	roleConflict bool
	zone         []domain.Position

	// Намерения
	intent        intention
	partnerIntent intention
	yielded       map[string]bool
	yieldPending  bool

	collision collisionState
}

func NewEngine(selfID string, out Outbox, store *beliefs.Store, cfg Settings) *Engine {
	e := &Engine{
		selfID:   selfID,
		out:      out,
		store:    store,
		settings: cfg,
		log:      logger.For("coordination", selfID),
		yielded:  make(map[string]bool),
	}
	e.router = newRouter(e)
	return e
}

// --- Доступ к состоянию ---

func (e *Engine) SelfID() string    { return e.selfID }
func (e *Engine) PartnerID() string { return e.partnerID }
func (e *Engine) Confirmed() bool   { return e.confirmed }

// Ready - партнер подтвержден и режим выбран
func (e *Engine) Ready() bool { return e.confirmed && e.modeChosen }

func (e *Engine) Mode() domain.Mode                { return e.mode }
func (e *Engine) Role() domain.Role                { return e.role }
func (e *Engine) PartnerRole() domain.Role         { return e.partnerRole }
func (e *Engine) RoleConflict() bool               { return e.roleConflict }
func (e *Engine) Handover() *domain.HandoverConfig { return e.handover }

// Zone - спавны, закрепленные за агентом в режиме NORMAL
func (e *Engine) Zone() []domain.Position { return e.zone }

// Handle обрабатывает входящее сообщение
func (e *Engine) Handle(env api.Envelope, now time.Time) {
	if e.destroyed {
		return
	}
	e.now = now
	e.router.Dispatch(env, now)
}

// Tick продвигает таймеры протокола. Вызывается раз за тик до выбора действия.
func (e *Engine) Tick(snap *beliefs.Snapshot) {
	if e.destroyed {
		return
	}
	e.now = snap.Now
	e.expireCollision()

	if snap.Self.ID == "" {
		return
	}

	if !e.confirmed {
		if e.lastShout.IsZero() || e.now.Sub(e.lastShout) >= e.settings.HandshakeInterval {
			e.announced = snap.Self.Pos
			e.send(api.MsgHandshake, "", api.HandshakePayload{
				SenderID: e.selfID,
				X:        snap.Self.Pos.X,
				Y:        snap.Self.Pos.Y,
			})
			e.lastShout = e.now
			e.log.Debug("handshake shouted")
		}
		return
	}

	if !e.modeChosen && snap.Grid != nil {
		e.selectMode(snap.Grid)
	}

	// Роль партнера не пришла: повторяем свою, пока он не ответит
	if e.mode == domain.ModeHandover && e.partnerRole == domain.RoleNone &&
		e.now.Sub(e.lastRole) >= e.settings.HandshakeInterval {
		e.sendRole()
	}

	if e.lastInfo.IsZero() || e.now.Sub(e.lastInfo) >= e.settings.HandshakeInterval {
		e.shareAgents(snap)
		e.lastInfo = e.now
	}

	if e.intent.ItemID != "" && e.now.Sub(e.intent.SentAt) >= e.settings.HandshakeInterval {
		e.sendIntention()
	}
}

// selectMode выполняется ровно один раз после подтверждения партнера
func (e *Engine) selectMode(g *domain.Grid) {
	e.modeChosen = true

	cfg := handover.NewAnalyzer(g, pathfinding.NewFinder(g)).ShouldUseHandover(g.Spawns, g.Deliveries)
	if cfg == nil {
		e.mode = domain.ModeNormal
		e.zone = zones.Partition(g.Spawns, []string{e.selfID, e.partnerID})[e.selfID]
		e.log.WithFields(logrus.Fields{
			"partner": e.partnerID,
			"zone":    len(e.zone),
		}).Info("normal mode selected")
		return
	}

	e.mode = domain.ModeHandover
	e.handover = cfg
	e.role = AssignRole(e.selfID, e.announced, e.partnerID, e.partnerPos, cfg.Spawn)
	e.log.WithFields(logrus.Fields{
		"partner": e.partnerID,
		"tile":    cfg.Tile.String(),
		"reason":  cfg.Reason,
		"role":    e.role.String(),
	}).Info("handover mode selected")

	if e.partnerRole != domain.RoleNone {
		e.checkRoleConflict()
	}
	e.sendRole()
}

func (e *Engine) sendRole() {
	if e.handover == nil {
		return
	}
	tile := e.handover.Tile
	e.send(api.MsgHandoverRole, e.partnerID, api.HandoverRolePayload{
		Role:         e.role.String(),
		HandoverTile: api.PositionView{X: tile.X, Y: tile.Y},
		NeedReply:    e.partnerRole == domain.RoleNone,
	})
	e.lastRole = e.now
}

func (e *Engine) checkRoleConflict() {
	if e.role != domain.RoleNone && e.role == e.partnerRole {
		e.roleConflict = true
		e.log.WithFields(logrus.Fields{
			"partner": e.partnerID,
			"role":    e.role.String(),
		}).Warn("partner announced the same role")
	}
}

func (e *Engine) shareAgents(snap *beliefs.Snapshot) {
	list := []api.AgentView{{
		ID:      e.selfID,
		X:       snap.Self.Pos.X,
		Y:       snap.Self.Pos.Y,
		Carried: snap.Self.Carried,
	}}
	for _, a := range snap.Agents {
		if a.Reported || a.ID == e.partnerID {
			continue
		}
		list = append(list, api.AgentView{ID: a.ID, X: a.Pos.X, Y: a.Pos.Y, Carried: a.Carried})
	}
	e.send(api.MsgAgentInfo, e.partnerID, api.AgentInfoPayload{Agents: list})
}

// send упаковывает и отправляет сообщение. Канал ненадежный, ошибка только логируется.
func (e *Engine) send(t api.MessageType, to string, payload any) {
	if e.out == nil || e.destroyed {
		return
	}
	env, err := api.NewEnvelope(t, e.selfID, to, payload)
	if err != nil {
		e.log.WithError(err).Error("failed to build message")
		return
	}
	if err := e.out.Send(env); err != nil {
		e.log.WithError(err).WithField("type", t).Warn("failed to send message")
	}
}

// Reset забывает партнера и все производное состояние
func (e *Engine) Reset() {
	e.partnerID = ""
	e.confirmed = false
	e.partnerPos = domain.Position{}
	e.announced = domain.Position{}
	e.lastShout = time.Time{}
	e.lastInfo = time.Time{}
	e.lastRole = time.Time{}
	e.modeChosen = false
	e.mode = domain.ModeNormal
	e.handover = nil
	e.role = domain.RoleNone
	e.partnerRole = domain.RoleNone
	e.roleConflict = false
	e.zone = nil
	e.intent = intention{}
	e.partnerIntent = intention{}
	clear(e.yielded)
	e.yieldPending = false
	e.collision = collisionState{}
	e.router.reset()
}

// Destroy сбрасывает состояние и прекращает любую отправку
func (e *Engine) Destroy() {
	e.Reset()
	e.destroyed = true
}
