// Package network доставляет сообщения протокола между агентами:
// в памяти (Bus) или через websocket-релей (Relay, WSClient).
package network

import (
	"deliveroo-agent/pkg/api"
	"deliveroo-agent/pkg/logger"
	"errors"
	"sync"
)

const inboxSize = 100

var (
	ErrClosed        = errors.New("endpoint closed")
	ErrUnknownTarget = errors.New("unknown target")
)

// Bus занимается только рассылкой конвертов подписчикам.
// Пустой To - shout всем, кроме отправителя, иначе say одному адресату.
// Переполненный канал теряет сообщение: канал по договоренности ненадежный.
type Bus struct {
	mu sync.RWMutex
	// Мапа: AgentID -> Личный канал
	subscribers map[string]chan api.Envelope
}

func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]chan api.Envelope),
	}
}

// Register создает личный канал агента. Повторная регистрация закрывает старый.
func (b *Bus) Register(agentID string) *Endpoint {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.subscribers[agentID]; ok {
		close(old)
	}

	ch := make(chan api.Envelope, inboxSize)
	b.subscribers[agentID] = ch
	return &Endpoint{bus: b, id: agentID, inbox: ch}
}

// Unregister удаляет подписчика
func (b *Bus) Unregister(agentID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[agentID]; ok {
		close(ch)
		delete(b.subscribers, agentID)
	}
}

// release снимает канал, только если его еще не заменила новая регистрация
func (b *Bus) release(agentID string, ch chan api.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cur, ok := b.subscribers[agentID]; ok && cur == ch {
		close(cur)
		delete(b.subscribers, agentID)
	}
}

// Deliver раскладывает конверт по каналам
func (b *Bus) Deliver(env api.Envelope) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if env.To != "" {
		ch, ok := b.subscribers[env.To]
		if !ok {
			return ErrUnknownTarget
		}
		b.push(ch, env)
		return nil
	}

	for id, ch := range b.subscribers {
		if id == env.SenderID {
			continue
		}
		b.push(ch, env)
	}
	return nil
}

func (b *Bus) push(ch chan api.Envelope, env api.Envelope) {
	select {
	case ch <- env:
	default:
		logger.Log.WithField("type", env.Type).Debug("bus: inbox full, message dropped")
	}
}

// HasSubscriber проверяет, подключен ли агент
func (b *Bus) HasSubscriber(agentID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[agentID]
	return ok
}

// SubscriberCount возвращает количество активных подписчиков.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Endpoint - подключение одного агента к шине
type Endpoint struct {
	bus   *Bus
	id    string
	inbox chan api.Envelope

	once   sync.Once
	closed bool
	mu     sync.Mutex
}

func (e *Endpoint) ID() string { return e.id }

// Send отправляет конверт от имени агента
func (e *Endpoint) Send(env api.Envelope) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}
	env.SenderID = e.id
	return e.bus.Deliver(env)
}

func (e *Endpoint) Inbox() <-chan api.Envelope { return e.inbox }

func (e *Endpoint) Close() {
	e.once.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()
		e.bus.release(e.id, e.inbox)
	})
}
