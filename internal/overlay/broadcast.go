package overlay

import (
	"encoding/json"
	"sync"
	"time"

	"codeberg.org/mutker/framescore/internal/logger"
	"codeberg.org/mutker/framescore/internal/stats"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer = 8
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Message is the envelope written to overlay subscribers.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Broadcast streams every HUD to attached websocket subscribers as JSON.
// Subscribers that fall behind are disconnected.
type Broadcast struct {
	mu      sync.Mutex
	clients map[*subscriber]struct{}
	last    []byte
	closed  bool
	logger  logger.Logger
}

func NewBroadcast(log logger.Logger) *Broadcast {
	return &Broadcast{
		clients: make(map[*subscriber]struct{}),
		logger:  log,
	}
}

func (b *Broadcast) Show(hud stats.HUD) error {
	data, err := json.Marshal(Message{Type: "hud", Payload: hud})
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.last = data
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			b.logger.Warn().Msg("Overlay subscriber too slow, disconnecting")
			delete(b.clients, c)
			close(c.send)
		}
	}

	return nil
}

// Clients returns the number of attached subscribers.
func (b *Broadcast) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Attach streams HUD updates to conn until the peer goes away. The latest HUD
// is sent immediately. Attach blocks and closes conn on return.
func (b *Broadcast) Attach(conn *websocket.Conn) {
	c := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = conn.Close()
		return
	}
	b.clients[c] = struct{}{}
	if b.last != nil {
		c.send <- b.last
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.writer(c)
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Debug().Err(err).Msg("Overlay subscriber read failed")
			}
			break
		}
	}

	b.remove(c)
	<-done
}

// Close disconnects every subscriber and refuses new ones.
func (b *Broadcast) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for c := range b.clients {
		delete(b.clients, c)
		close(c.send)
	}
}

func (b *Broadcast) remove(c *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
}

func (b *Broadcast) writer(c *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
