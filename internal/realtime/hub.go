package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains quiz_id -> set of monitor connections and fans quiz events out to them.
// With Redis configured every event goes through the quiz channel so all instances see it once.
type Hub struct {
	// quizID -> map[clientID]*Client
	rooms    map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per quiz
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishQuizEvent(quizID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to quiz channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeQuiz(quizID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. Either Redis side may be nil.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:    make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to a quiz room. Starts the Redis subscription for the quiz on the first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.QuizID] == nil {
		h.rooms[c.QuizID] = make(map[string]*Client)
		if h.redisSub != nil {
			quizID := c.QuizID
			cancel, err := h.redisSub.SubscribeQuiz(quizID, func(event string, payload []byte) {
				h.Broadcast(quizID, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("redis subscribe failed", zap.Error(err), zap.String("quiz_id", quizID.String()))
			} else {
				h.subs[quizID] = cancel
			}
		}
	}
	h.rooms[c.QuizID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("monitor joined quiz", zap.String("client_id", c.ID), zap.String("quiz_id", c.QuizID.String()))
}

// Unregister removes a client from its room. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.QuizID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.QuizID)
			if cancel, ok := h.subs[c.QuizID]; ok {
				cancel()
				delete(h.subs, c.QuizID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("monitor left quiz", zap.String("client_id", c.ID), zap.String("quiz_id", c.QuizID.String()))
}

func encode(payload interface{}) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(payload)
	}
}

// Broadcast sends a message to all clients of a quiz on this instance.
func (h *Hub) Broadcast(quizID uuid.UUID, event string, payload interface{}) {
	data, err := encode(payload)
	if err != nil {
		h.logger.Warn("encode event", zap.Error(err), zap.String("event", event))
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[quizID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers a quiz event to every monitor. Through Redis when configured,
// whose subscriber callback then broadcasts locally; otherwise locally only.
func (h *Hub) Publish(quizID uuid.UUID, event string, payload interface{}) {
	if h.redis == nil {
		h.Broadcast(quizID, event, payload)
		return
	}
	data, err := encode(payload)
	if err != nil {
		h.logger.Warn("encode event", zap.Error(err), zap.String("event", event))
		return
	}
	if err := h.redis.PublishQuizEvent(quizID, event, data); err != nil {
		h.logger.Warn("redis publish failed, delivering locally", zap.Error(err), zap.String("quiz_id", quizID.String()))
		h.Broadcast(quizID, event, json.RawMessage(data))
	}
}

// Watchers returns the number of connected monitors for a quiz.
func (h *Hub) Watchers(quizID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[quizID])
}

// SendToClient sends a message to a single client of a quiz.
func (h *Hub) SendToClient(quizID uuid.UUID, clientID string, event string, payload interface{}) {
	data, err := encode(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.rooms[quizID][clientID]
	if !ok {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}
