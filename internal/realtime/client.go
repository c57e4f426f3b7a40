package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/middleware"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/response"
)

const (
	EventWatchers = "watchers"
	EventPong     = "pong"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // access is gated by the token and quiz check
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Monitor decides who may watch a quiz's live feed.
type Monitor interface {
	CanMonitor(ctx context.Context, p access.Principal, quizID uuid.UUID) (bool, error)
}

// Client represents a single WebSocket connection watching a quiz.
type Client struct {
	ID       string
	QuizID   uuid.UUID
	UserID   uuid.UUID
	JoinedAt time.Time
	hub      *Hub
	conn     *websocket.Conn
	send     chan WSMessage
	logger   *zap.Logger
}

// ServeWs handles GET /ws?quiz_id=&token= and runs the client loop.
func ServeWs(hub *Hub, logger *zap.Logger, identify middleware.TokenValidator, monitor Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		quizIDStr := c.Query("quiz_id")
		token := c.Query("token")
		if quizIDStr == "" || token == "" {
			response.BadRequest(c, "quiz_id and token required")
			return
		}
		quizID, err := uuid.Parse(quizIDStr)
		if err != nil {
			response.BadRequest(c, "invalid quiz_id")
			return
		}
		userID, role, err := identify(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}
		ok, err := monitor.CanMonitor(c.Request.Context(), access.Principal{UserID: userID, Role: role}, quizID)
		if err != nil {
			logger.Error("monitor check failed", zap.Error(err), zap.String("quiz_id", quizID.String()))
			response.Internal(c, "internal server error")
			return
		}
		if !ok {
			response.Forbidden(c, "not allowed to monitor this quiz")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:       uuid.New().String(),
			QuizID:   quizID,
			UserID:   userID,
			JoinedAt: time.Now(),
			hub:      hub,
			conn:     conn,
			send:     make(chan WSMessage, 256),
			logger:   logger,
		}
		hub.Register(client)
		hub.Broadcast(quizID, EventWatchers, map[string]int{"count": hub.Watchers(quizID)})
		go client.writePump()
		client.readPump()
	}
}

// readPump keeps the connection alive. The feed is one-way, so only pings are answered.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.hub.Broadcast(c.QuizID, EventWatchers, map[string]int{"count": c.hub.Watchers(c.QuizID)})
		close(c.send)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "ping":
			c.hub.SendToClient(c.QuizID, c.ID, EventPong, map[string]int64{"at": time.Now().Unix()})
		default:
			c.logger.Debug("ignored client event", zap.String("event", msg.Event), zap.String("client_id", c.ID))
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
