package coordination

import (
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/pkg/api"
	"time"

	"github.com/sirupsen/logrus"
)

// onHandshake: первый HANDSHAKE без партнера принимается безусловно
func (e *Engine) onHandshake(env api.Envelope, p api.HandshakePayload, _ time.Time) error {
	sender := env.SenderID
	switch {
	case e.partnerID == "":
		e.partnerID = sender
		e.confirm()
	case e.partnerID != sender:
		return nil
	}

	// После выбора режима позиции заморожены: по ним уже распределены роли
	if !e.modeChosen {
		e.partnerPos = domain.Position{X: p.X, Y: p.Y}
		self, _ := e.store.Self()
		e.announced = self.Pos
	}

	// Отвечаем на каждый HANDSHAKE партнера: ACK мог потеряться
	e.send(api.MsgHandshakeAck, sender, api.HandshakePayload{
		SenderID: e.selfID,
		X:        e.announced.X,
		Y:        e.announced.Y,
	})
	// Партнер нас еще не подтвердил, значит и прежнее объявление роли он отбросил
	if e.mode == domain.ModeHandover {
		e.sendRole()
	}
	return nil
}

// onHandshakeAck: отправитель HANDSHAKE получает ответ и принимает ответившего
func (e *Engine) onHandshakeAck(env api.Envelope, p api.HandshakePayload, _ time.Time) error {
	sender := env.SenderID
	if e.partnerID != "" && e.partnerID != sender {
		return nil
	}
	if !e.modeChosen {
		e.partnerPos = domain.Position{X: p.X, Y: p.Y}
	}
	if e.partnerID == "" {
		e.partnerID = sender
	}
	if !e.confirmed {
		e.confirm()
	}
	return nil
}

func (e *Engine) confirm() {
	e.confirmed = true
	e.log.WithField("partner", e.partnerID).Info("partner confirmed")
}

func (e *Engine) onAgentInfo(env api.Envelope, p api.AgentInfoPayload, now time.Time) error {
	reported := make([]domain.AgentSnapshot, 0, len(p.Agents))
	for _, a := range p.Agents {
		reported = append(reported, domain.AgentSnapshot{
			ID:      a.ID,
			Pos:     domain.Position{X: a.X, Y: a.Y},
			Carried: a.Carried,
		})
	}
	e.store.MergeReported(reported, now)
	return nil
}

func (e *Engine) onHandoverRole(env api.Envelope, p api.HandoverRolePayload, _ time.Time) error {
	e.partnerRole = domain.ParseRole(p.Role)
	e.log.WithFields(logrus.Fields{
		"partner": env.SenderID,
		"role":    e.partnerRole.String(),
	}).Debug("partner role received")
	if e.modeChosen {
		e.checkRoleConflict()
		if p.NeedReply && e.mode == domain.ModeHandover {
			e.sendRole()
		}
	}
	return nil
}

// AssignRole решает роль агента в режиме передачи.
// Ближний к спавну (по Манхэттену) становится Collector, при равенстве - меньший ID.
// Обе стороны вызывают функцию с одинаковыми данными и получают дополняющие роли.
func AssignRole(selfID string, selfPos domain.Position, partnerID string, partnerPos, spawn domain.Position) domain.Role {
	ds := selfPos.Manhattan(spawn)
	dp := partnerPos.Manhattan(spawn)
	switch {
	case ds < dp:
		return domain.RoleCollector
	case ds > dp:
		return domain.RoleCourier
	}
	if domain.CompareAgentIDs(selfID, partnerID) < 0 {
		return domain.RoleCollector
	}
	return domain.RoleCourier
}
