package coordination

import (
	"deliveroo-agent/pkg/api"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// seenCapacity - сколько последних ID конвертов помнить для отсева дублей
const seenCapacity = 256

type handlerFunc func(env api.Envelope, now time.Time) error

// typedHandlerFunc работает с уже распакованным payload
type typedHandlerFunc[T any] func(env api.Envelope, payload T, now time.Time) error

// withPayload берет на себя Unmarshal и Validate
func withPayload[T any](handler typedHandlerFunc[T]) handlerFunc {
	return func(env api.Envelope, now time.Time) error {
		var payload T

		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("invalid payload format: %w", err)
		}

		if v, ok := any(payload).(api.Validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
		}

		return handler(env, payload, now)
	}
}

// Router фильтрует и раскладывает входящие конверты по обработчикам Engine
type Router struct {
	engine   *Engine
	handlers map[api.MessageType]handlerFunc

	seen  map[string]struct{}
	order []string
}

func newRouter(e *Engine) *Router {
	r := &Router{
		engine:   e,
		handlers: make(map[api.MessageType]handlerFunc),
		seen:     make(map[string]struct{}),
	}
	r.handlers[api.MsgHandshake] = withPayload(e.onHandshake)
	r.handlers[api.MsgHandshakeAck] = withPayload(e.onHandshakeAck)
	r.handlers[api.MsgAgentInfo] = withPayload(e.onAgentInfo)
	r.handlers[api.MsgIntention] = withPayload(e.onIntention)
	r.handlers[api.MsgCollision] = withPayload(e.onCollision)
	r.handlers[api.MsgHandoverRole] = withPayload(e.onHandoverRole)
	return r
}

// Dispatch возвращает true, если сообщение дошло до обработчика
func (r *Router) Dispatch(env api.Envelope, now time.Time) bool {
	e := r.engine
	log := e.log.WithFields(logrus.Fields{"type": env.Type, "sender": env.SenderID})

	if err := env.Validate(); err != nil {
		log.WithError(err).Warn("dropping malformed message")
		return false
	}
	if env.SenderID == e.selfID || (env.To != "" && env.To != e.selfID) {
		return false
	}
	if r.duplicate(env.ID) {
		log.Debug("dropping duplicate message")
		return false
	}

	handshake := env.Type == api.MsgHandshake || env.Type == api.MsgHandshakeAck
	if !handshake && (!e.confirmed || env.SenderID != e.partnerID) {
		log.Debug("dropping message from non-partner")
		return false
	}

	h, ok := r.handlers[env.Type]
	if !ok {
		log.Debug("no handler for message type")
		return false
	}
	if err := h(env, now); err != nil {
		log.WithError(err).Warn("message rejected")
		return false
	}
	return true
}

func (r *Router) duplicate(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	r.order = append(r.order, id)
	if len(r.order) > seenCapacity {
		delete(r.seen, r.order[0])
		r.order = r.order[1:]
	}
	return false
}

func (r *Router) reset() {
	clear(r.seen)
	r.order = r.order[:0]
}
