package ws

import (
	"bounty-lab/domain"
	"bounty-lab/errors"
	"bounty-lab/infrastructure/wire"
	"bounty-lab/services"
	"bounty-lab/sink"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	replyCapacity = 16
)

// Server upgrades viewers to websockets and bridges them to the room service.
// Each socket is one connection: a read pump handles join/leave frames,
// a write pump drains pushed room events and replies.
type Server struct {
	log            *slog.Logger
	service        services.IRoomService
	limiter        *RateLimiter
	upgrader       websocket.Upgrader
	bufferSize     int
	maxMessageSize int64
	pingPeriod     time.Duration
	pongWait       time.Duration
}

func NewServer(log *slog.Logger, service services.IRoomService, limiter *RateLimiter,
	bufferSize int, maxMessageSize int64) *Server {
	return &Server{
		log:            log,
		service:        service,
		limiter:        limiter,
		bufferSize:     bufferSize,
		maxMessageSize: maxMessageSize,
		pingPeriod:     pingPeriod,
		pongWait:       pongWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type viewerConn struct {
	id      domain.ConnectionID
	conn    *websocket.Conn
	sink    *sink.ConnectionSink
	replies chan wire.Envelope
}

// reply queues an acknowledgement unless the connection is already gone.
func (c *viewerConn) reply(env wire.Envelope) {
	select {
	case c.replies <- env:
	case <-c.sink.Done():
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow(clientIP(r)) {
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	c := &viewerConn{
		id:      domain.ConnectionID(uuid.NewString()),
		conn:    conn,
		sink:    sink.NewConnectionSink(s.bufferSize),
		replies: make(chan wire.Envelope, replyCapacity),
	}
	if err := s.service.Connect(c.id, c.sink); err != nil {
		s.log.Error("Viewer connect failed", "conn", c.id, "error", err)
		_ = conn.Close()
		return
	}
	s.log.Debug("Viewer connected", "conn", c.id)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writePump(c)
	}()

	s.readPump(c)

	s.service.Disconnect(c.id)
	c.sink.Close()
	_ = conn.Close()
	wg.Wait()
	s.log.Debug("Viewer disconnected", "conn", c.id)
}

func (s *Server) readPump(c *viewerConn) {
	c.conn.SetReadLimit(s.maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(s.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(s.pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("Websocket read error", "conn", c.id, "error", err)
			}
			return
		}
		var frame wire.ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.reply(errorEnvelope("invalid frame"))
			continue
		}
		s.handleFrame(c, frame)
	}
}

func (s *Server) handleFrame(c *viewerConn, frame wire.ClientFrame) {
	roomID := domain.RoomID(frame.RoomID)
	switch frame.Type {
	case wire.TypeJoinRoom:
		snapshot, err := s.service.JoinRoom(c.id, roomID)
		if err != nil {
			c.reply(s.failure(c, err))
			return
		}
		c.reply(wire.Envelope{Type: wire.TypeRoomJoined, Payload: wire.NewSnapshotView(snapshot)})
	case wire.TypeLeaveRoom:
		count, err := s.service.LeaveRoom(c.id, roomID)
		if err != nil {
			c.reply(s.failure(c, err))
			return
		}
		c.reply(wire.Envelope{Type: wire.TypeRoomLeft, Payload: wire.RoomLeftView{RoomID: frame.RoomID, ViewerCount: count}})
	default:
		c.reply(errorEnvelope("unknown frame type " + string(frame.Type)))
	}
}

func (s *Server) failure(c *viewerConn, err error) wire.Envelope {
	if stdErrors.Is(err, errors.ErrInvalidRequest) {
		return errorEnvelope(err.Error())
	}
	s.log.Warn("Viewer request failed", "conn", c.id, "error", err)
	return errorEnvelope("request failed")
}

// writePump is the only writer of the socket.
func (s *Server) writePump(c *viewerConn) {
	ticker := time.NewTicker(s.pingPeriod)
	defer func() {
		ticker.Stop()
		// unblocks the read pump when the write side fails first
		c.sink.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.sink.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case env := <-c.replies:
			if err := s.write(c, env); err != nil {
				return
			}
		case evt := <-c.sink.Events():
			env, err := wire.NewEventEnvelope(evt)
			if err != nil {
				s.log.Error("Unsupported event", "conn", c.id, "error", err)
				continue
			}
			if err := s.write(c, env); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) write(c *viewerConn, env wire.Envelope) error {
	data, err := wire.Encode(env)
	if err != nil {
		s.log.Error("Envelope encoding failed", "conn", c.id, "type", env.Type, "error", err)
		return nil
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.log.Debug("Websocket write failed", "conn", c.id, "error", err)
		return err
	}
	return nil
}

func errorEnvelope(message string) wire.Envelope {
	return wire.Envelope{Type: wire.TypeError, Payload: wire.ErrorView{Error: message}}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
