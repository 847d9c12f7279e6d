package network

import (
	"context"
	"deliveroo-agent/pkg/api"
	"deliveroo-agent/pkg/logger"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSClient - подключение агента к релею
type WSClient struct {
	id    string
	conn  *websocket.Conn
	inbox chan api.Envelope
	log   *logrus.Entry

	writeMu sync.Mutex
	once    sync.Once
	done    chan struct{}
}

// Dial подключается к релею и регистрирует агента сообщением HELLO
func Dial(ctx context.Context, url, agentID string) (*WSClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", url, err)
	}

	c := &WSClient{
		id:    agentID,
		conn:  conn,
		inbox: make(chan api.Envelope, inboxSize),
		log:   logger.For("ws-client", agentID),
		done:  make(chan struct{}),
	}

	hello, err := api.NewEnvelope(api.MsgHello, agentID, "", nil)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := c.Send(hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send hello: %w", err)
	}

	go c.readLoop()
	return c, nil
}

func (c *WSClient) ID() string { return c.id }

// Send пишет конверт в сокет. Отправитель всегда подставляется свой.
func (c *WSClient) Send(env api.Envelope) error {
	env.SenderID = c.id

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(env)
}

func (c *WSClient) Inbox() <-chan api.Envelope { return c.inbox }

func (c *WSClient) readLoop() {
	defer close(c.inbox)
	for {
		var env api.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			select {
			case <-c.done:
			default:
				c.log.WithError(err).Warn("relay connection lost")
			}
			return
		}
		select {
		case c.inbox <- env:
		default:
			c.log.WithField("type", env.Type).Debug("inbox full, message dropped")
		}
	}
}

// Close закрывает соединение, Inbox закроется после выхода из readLoop
func (c *WSClient) Close() error {
	var err error
	c.once.Do(func() {
		c.writeMu.Lock()
		close(c.done)
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
