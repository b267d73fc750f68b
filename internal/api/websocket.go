package api

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mesh-intelligence/slate/internal/kanban"
	"github.com/mesh-intelligence/slate/pkg/types"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// Feed message types.
const (
	MessageSnapshot = "snapshot"
	MessageAlert    = "alert"
)

// Message is one frame on the board feed.
type Message struct {
	Type      string        `json:"type"`
	Board     *kanban.Board `json:"board,omitempty"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// client is one connected socket. push never blocks: a client that falls
// behind loses frames, and the next snapshot supersedes them.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
}

func (c *client) push(frame []byte) {
	select {
	case <-c.done:
	case c.send <- frame:
	default:
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
		}
	}
}

// readLoop discards client frames and returns when the socket closes.
func (c *client) readLoop() {
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// feeds is the set of sockets watching one project.
type feeds struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

func newFeeds() *feeds {
	return &feeds{clients: make(map[*client]struct{})}
}

func (f *feeds) add(c *client) {
	f.mu.Lock()
	f.clients[c] = struct{}{}
	f.mu.Unlock()
}

func (f *feeds) remove(c *client) {
	f.mu.Lock()
	delete(f.clients, c)
	f.mu.Unlock()
}

// alert sends a store failure message to every watcher.
func (f *feeds) alert(message string) {
	frame, err := json.Marshal(Message{Type: MessageAlert, Message: message, Timestamp: time.Now().UTC()})
	if err != nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		c.push(frame)
	}
}

func (f *feeds) closeAll() {
	f.mu.Lock()
	clients := f.clients
	f.clients = make(map[*client]struct{})
	f.mu.Unlock()
	for c := range clients {
		c.close()
	}
}

// watch upgrades the request and streams a board snapshot after every
// store change to the project. The sort and character query parameters
// shape the board the same way they do for GET board.
func (s *Server) watch(c *gin.Context) {
	b, ok := s.withBoard(c)
	if !ok {
		return
	}
	key := b.engine.SortKey()
	if raw := c.Query("sort"); raw != "" {
		parsed, err := kanban.ParseSortKey(raw)
		if err != nil {
			fail(c, err)
			return
		}
		key = parsed
	}
	filter := c.Query("character")
	scenes, err := s.store.Scenes()
	if err != nil {
		fail(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	cl := newClient(conn)
	b.feeds.add(cl)
	go cl.writeLoop()

	project := c.Param("project")
	sub, err := scenes.Subscribe(project, func(list []types.Scene) {
		view := kanban.Columnize(list, b.engine.Columns(), key, filter)
		frame, err := json.Marshal(Message{Type: MessageSnapshot, Board: &view, Timestamp: time.Now().UTC()})
		if err != nil {
			return
		}
		cl.push(frame)
	})
	if err != nil {
		s.logger.Error("subscribe failed", slog.String("project", project), slog.Any("error", err))
		b.feeds.remove(cl)
		cl.close()
		return
	}
	s.logger.Debug("watcher connected", slog.String("project", project))

	cl.readLoop()

	sub.Close()
	b.feeds.remove(cl)
	cl.close()
	s.logger.Debug("watcher disconnected", slog.String("project", project))
}
