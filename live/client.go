package live

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Message is the frame pushed to WebSocket subscribers.
type Message struct {
	Type       string            `json:"type"` // SNAPSHOT
	Collection string            `json:"collection"`
	Seq        uint64            `json:"seq"`
	Payload    []json.RawMessage `json:"payload"`
}

// Client связывает одно WebSocket-соединение с одной подпиской хаба.
type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	Room   string
	logger *slog.Logger

	mu          sync.Mutex
	closed      bool
	unsubscribe func()
}

func NewClient(conn *websocket.Conn, room string, logger *slog.Logger) *Client {
	return &Client{
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		Room:   room,
		logger: logger,
	}
}

// Attach sets the subscription released when the connection goes away.
func (c *Client) Attach(unsubscribe func()) {
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
}

// Push encodes a snapshot and queues it. Snapshots are full state, so when
// the buffer is full the oldest queued frame is dropped in favour of the new one.
func (c *Client) Push(snap Snapshot) {
	msg := Message{
		Type:       "SNAPSHOT",
		Collection: string(snap.Collection),
		Seq:        snap.Seq,
		Payload:    make([]json.RawMessage, 0, len(snap.Documents)),
	}
	for _, doc := range snap.Documents {
		msg.Payload = append(msg.Payload, json.RawMessage(doc.Data))
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to encode snapshot", slog.String("room", c.Room), slog.Any("error", err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for {
		select {
		case c.Send <- data:
			return
		default:
			select {
			case <-c.Send:
				c.logger.Debug("client send buffer full, dropping stale snapshot", slog.String("room", c.Room))
			default:
			}
		}
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// ReadPump drains control frames; client messages are ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.shutdown()
		c.Conn.Close()
		c.logger.Debug("client readPump closed", slog.String("room", c.Room))
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", slog.String("room", c.Room), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.logger.Debug("client writePump closed", slog.String("room", c.Room))
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Каждый снимок — отдельный кадр, иначе JSON склеится.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write failed", slog.String("room", c.Room), slog.Any("error", err))
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("websocket ping failed", slog.String("room", c.Room), slog.Any("error", err))
				return
			}
		}
	}
}
