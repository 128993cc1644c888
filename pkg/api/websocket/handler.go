package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aescanero/dagflow/pkg/domain"
	"github.com/aescanero/dagflow/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Status stream is read-only
	},
}

// wireEvent is the JSON form of an engine event. Task and error references
// are flattened to plain fields so the payload is self-contained.
type wireEvent struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	RunID      string    `json:"run_id"`
	Task       string    `json:"task,omitempty"`
	State      string    `json:"state,omitempty"`
	RetryCount int       `json:"retry_count,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Handler handles WebSocket connections
type Handler struct {
	eventBus ports.EventBus
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(eventBus ports.EventBus, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		eventBus: eventBus,
		logger:   logger,
	}
}

// HandleEventStream upgrades the connection and forwards lifecycle events
// until the client disconnects.
func (h *Handler) HandleEventStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("WebSocket connection established",
		zap.String("client", c.ClientIP()))

	eventChan := make(chan domain.Event, 64)
	listener := domain.ListenerFunc(func(e domain.Event) {
		select {
		case eventChan <- e:
		default:
			h.logger.Warn("event channel full, dropping event",
				zap.String("event_id", e.ID),
				zap.String("kind", string(e.Kind)))
		}
	})

	for _, kind := range domain.EventKinds() {
		h.eventBus.Register(kind, listener)
	}
	defer func() {
		for _, kind := range domain.EventKinds() {
			h.eventBus.Unregister(kind, listener)
		}
	}()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-eventChan:
			data, err := json.Marshal(toWire(e))
			if err != nil {
				h.logger.Error("failed to marshal event", zap.Error(err))
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Info("client disconnected", zap.Error(err))
				return
			}
		}
	}
}

func toWire(e domain.Event) wireEvent {
	w := wireEvent{
		ID:        e.ID,
		Kind:      string(e.Kind),
		RunID:     e.RunID,
		Timestamp: e.Timestamp,
	}
	if e.Task != nil {
		w.Task = e.Task.Name()
		w.State = string(e.Task.State())
		w.RetryCount = e.Task.RetryCount()
	}
	if e.Err != nil {
		w.Error = e.Err.Error()
	}
	return w
}
