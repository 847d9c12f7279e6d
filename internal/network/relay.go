package network

import (
	"deliveroo-agent/pkg/api"
	"deliveroo-agent/pkg/logger"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Relay - websocket-ретранслятор между агентами.
// Первое сообщение клиента - HELLO с его ID, дальше конверты идут через Bus.
type Relay struct {
	bus *Bus
	mux *http.ServeMux
	log *logrus.Entry
}

func NewRelay() *Relay {
	r := &Relay{
		bus: NewBus(),
		mux: http.NewServeMux(),
		log: logger.Log.WithField("component", "relay"),
	}
	r.mux.HandleFunc("/ws", r.serveWS)
	r.mux.HandleFunc("/health", r.serveHealth)
	return r
}

func (r *Relay) Bus() *Bus { return r.bus }

func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Relay) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": r.bus.SubscriberCount(),
	}); err != nil {
		r.log.WithError(err).Warn("failed to write health response")
	}
}

func (r *Relay) serveWS(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	c := &relayClient{relay: r, conn: conn}
	go c.run()
}

// relayClient - посредник между одним websocket и шиной
type relayClient struct {
	relay *Relay
	conn  *websocket.Conn
	ep    *Endpoint
}

func (c *relayClient) run() {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.relay.log.WithError(err).Warn("failed to set read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// 1. HELLO
	var hello api.Envelope
	if err := c.conn.ReadJSON(&hello); err != nil || hello.Type != api.MsgHello || hello.SenderID == "" {
		c.relay.log.Warn("hello failed")
		_ = c.conn.Close()
		return
	}

	c.ep = c.relay.bus.Register(hello.SenderID)
	c.relay.log.WithField("agent", hello.SenderID).Info("agent connected")

	go c.writePump()
	c.readPump()
}

// readPump пересылает конверты клиента в шину
func (c *relayClient) readPump() {
	defer func() {
		c.ep.Close()
		if err := c.conn.Close(); err != nil {
			c.relay.log.WithError(err).Debug("failed to close websocket connection")
		}
		c.relay.log.WithField("agent", c.ep.ID()).Info("agent disconnected")
	}()

	for {
		var env api.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.relay.log.WithError(err).Warn("websocket read error")
			}
			return
		}
		if err := c.ep.Send(env); err != nil {
			c.relay.log.WithError(err).WithField("to", env.To).Debug("relay: message not delivered")
		}
	}
}

// writePump отправляет конверты клиенту + Ping
func (c *relayClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.ep.Inbox():
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.relay.log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				c.relay.log.WithError(err).Debug("write json message failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.relay.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.relay.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
