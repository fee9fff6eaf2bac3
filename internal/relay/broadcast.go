// Package relay exposes the live session feed to local observers over a
// websocket endpoint, so a charting tool or a second console can watch
// a recording without touching the engine.
package relay

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster fans messages out to every connected observer. A slow
// observer is disconnected rather than allowed to stall the feed.
type Broadcaster struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[*client]bool

	// snapshot is called on connect so a new observer starts with the
	// current session state instead of an empty screen.
	snapshot func() SnapshotPayload
}

func NewBroadcaster(log *zap.Logger, snapshot func() SnapshotPayload) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{
		log:      log,
		clients:  make(map[*client]bool),
		snapshot: snapshot,
	}
}

func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	if b.snapshot != nil {
		data, err := json.Marshal(Message{Type: MsgSnapshot, Payload: b.snapshot()})
		if err == nil {
			select {
			case c.send <- data:
			default:
				// Client too slow, drop the snapshot
			}
		}
	}
	return c
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// Publish sends one message to every observer.
func (b *Broadcaster) Publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Warn("relay marshal failed", zap.Error(err))
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			// Client can't keep up, disconnect it
			b.log.Warn("relay client too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close disconnects every observer.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}
