package session

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/michalswi/jogjamap/mapview"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 8 << 10
	sendQueueSize  = 256
)

// Session binds one websocket connection to one mapview.Viewer. The viewer
// emits into the session's send queue; the write pump drains it.
type Session struct {
	id     string
	conn   *websocket.Conn
	hub    *Hub
	logger *zap.Logger

	// mu guards viewer against a shutdown racing attach.
	mu     sync.Mutex
	viewer *mapview.Viewer

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newSession(id string, conn *websocket.Conn, hub *Hub, logger *zap.Logger) *Session {
	return &Session{
		id:     id,
		conn:   conn,
		hub:    hub,
		logger: logger,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// ID is the session's uuid.
func (s *Session) ID() string { return s.id }

// Emit queues a command for the browser. It never blocks: a session whose
// browser cannot keep up is closed.
func (s *Session) Emit(c mapview.Command) {
	data, err := json.Marshal(c)
	if err != nil {
		s.logger.Error("encode command", zap.String("type", string(c.Type)), zap.Error(err))
		return
	}
	select {
	case <-s.done:
	case s.send <- data:
	default:
		s.logger.Warn("send queue full, dropping session")
		// Emit runs under the viewer lock; closing the viewer here would deadlock.
		go s.shutdown("send queue full")
	}
}

// attach hands the session its viewer. It reports false if the session was
// already shut down, in which case the caller owns v.
func (s *Session) attach(v *mapview.Viewer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	s.viewer = v
	return true
}

func (s *Session) pushState() {
	s.Emit(mapview.Command{Type: CmdState, Data: s.viewer.State()})
}

func (s *Session) handle(data []byte) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		s.Emit(mapview.Command{Type: CmdError, Data: eventError{Message: "malformed event"}})
		return
	}
	if err := dispatch(s.viewer, ev); err != nil {
		if errors.Is(err, mapview.ErrClosed) {
			return
		}
		s.logger.Debug("event rejected", zap.String("event", ev.Type), zap.Error(err))
		s.Emit(mapview.Command{Type: CmdError, Data: eventError{Event: ev.Type, Message: err.Error()}})
	}
	s.pushState()
}

func (s *Session) readLoop() {
	defer s.shutdown("disconnected")

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info("websocket read failed", zap.Error(err))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		s.handle(data)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			deadline := time.Now().Add(writeWait)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, deadline)
			return
		}
	}
}

// shutdown unmounts the viewer and releases the connection once.
func (s *Session) shutdown(reason string) {
	s.once.Do(func() {
		s.mu.Lock()
		close(s.done)
		v := s.viewer
		s.mu.Unlock()
		if v != nil {
			_ = v.Close()
		}
		s.hub.remove(s.id)
		s.logger.Info("session closed", zap.String("reason", reason))
	})
}
