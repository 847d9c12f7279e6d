package coordination

import (
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/pkg/api"
	"time"

	"github.com/sirupsen/logrus"
)

// intention - объявленное намерение подобрать посылку
type intention struct {
	ItemID  string
	Pos     domain.Position
	Utility float64
	SentAt  time.Time
}

// ShouldYield решает, уступает ли сторона self посылку партнеру.
// Меньшая полезность уступает, при равенстве уступает больший ID.
// Результат симметричен: ровно одна из сторон получает true.
func ShouldYield(selfUtility, partnerUtility float64, selfID, partnerID string) bool {
	switch {
	case selfUtility < partnerUtility:
		return true
	case selfUtility > partnerUtility:
		return false
	}
	return domain.CompareAgentIDs(selfID, partnerID) > 0
}

// AnnounceIntention сообщает партнеру посылку, которую агент собирается подобрать.
// Повторная отправка того же намерения идет по таймеру из Tick.
func (e *Engine) AnnounceIntention(itemID string, at domain.Position, utility float64) {
	if e.partnerID == "" || e.mode != domain.ModeNormal {
		return
	}
	if itemID == e.intent.ItemID && at == e.intent.Pos {
		return
	}
	e.intent = intention{ItemID: itemID, Pos: at, Utility: utility}
	e.sendIntention()
	e.arbitrate()
}

// ClearIntention отзывает объявленное намерение
func (e *Engine) ClearIntention() {
	if e.intent.ItemID == "" {
		return
	}
	e.intent = intention{}
	e.sendIntention()
}

func (e *Engine) sendIntention() {
	e.intent.SentAt = e.now
	e.send(api.MsgIntention, e.partnerID, api.IntentionPayload{
		ItemID:  e.intent.ItemID,
		X:       e.intent.Pos.X,
		Y:       e.intent.Pos.Y,
		Utility: e.intent.Utility,
	})
}

func (e *Engine) onIntention(env api.Envelope, p api.IntentionPayload, now time.Time) error {
	prev := e.partnerIntent.ItemID
	e.partnerIntent = intention{
		ItemID:  p.ItemID,
		Pos:     domain.Position{X: p.X, Y: p.Y},
		Utility: p.Utility,
		SentAt:  now,
	}
	if prev != "" && prev != p.ItemID {
		delete(e.yielded, prev)
	}
	e.arbitrate()
	return nil
}

// arbitrate сравнивает свое объявленное намерение с намерением партнера
func (e *Engine) arbitrate() {
	if e.intent.ItemID == "" || e.intent.ItemID != e.partnerIntent.ItemID {
		return
	}
	if !ShouldYield(e.intent.Utility, e.partnerIntent.Utility, e.selfID, e.partnerID) {
		return
	}

	e.log.WithFields(logrus.Fields{
		"item":            e.intent.ItemID,
		"utility":         e.intent.Utility,
		"partner_utility": e.partnerIntent.Utility,
	}).Info("yielding item to partner")

	e.yielded[e.intent.ItemID] = true
	e.intent = intention{}
	e.yieldPending = true
}

// IsYielded - посылка уступлена партнеру и пока им не отпущена
func (e *Engine) IsYielded(itemID string) bool {
	return e.yielded[itemID]
}

// TakeYield возвращает true один раз после каждой уступки.
// Агент в ответ снимает текущее намерение и сбрасывает счетчик ошибок плана.
func (e *Engine) TakeYield() bool {
	if !e.yieldPending {
		return false
	}
	e.yieldPending = false
	return true
}
