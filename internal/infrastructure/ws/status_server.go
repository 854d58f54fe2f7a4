package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StatusMessage is the frame pushed to dashboard clients.
type StatusMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// StatusServer holds dashboard WebSocket connections and pushes status
// frames to all of them. Clients only listen; inbound frames are
// drained and dropped.
type StatusServer struct {
	connections map[*websocket.Conn]struct{}
	mu          sync.RWMutex

	writeTimeout time.Duration
	logger       *zap.SugaredLogger
}

func NewStatusServer(logger *zap.SugaredLogger) *StatusServer {
	return &StatusServer{
		connections:  make(map[*websocket.Conn]struct{}),
		writeTimeout: 10 * time.Second,
		logger:       logger,
	}
}

// HandleConnection upgrades the request and greets the client. It blocks
// until the client disconnects.
func (s *StatusServer) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.mu.Lock()
	s.connections[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.connections, conn)
		s.mu.Unlock()
	}()

	greeting := StatusMessage{Type: "status", Message: "Connected to dashboard backend"}
	conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := conn.WriteJSON(greeting); err != nil {
		s.logger.Debugw("websocket greeting failed", "error", err)
		return
	}

	// Drain inbound frames until the peer goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes one status frame to every connected client. Dead
// connections are dropped on write failure.
func (s *StatusServer) Broadcast(msg StatusMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.connections {
		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			conn.Close()
			delete(s.connections, conn)
		}
	}
}

// ClientCount reports the number of connected dashboard clients.
func (s *StatusServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}
