package ws

import (
	"net/http"
	"strings"
	"time"

	apihttp "github.com/GriffinCanCode/chatgate/internal/api/http"
	"github.com/GriffinCanCode/chatgate/internal/engine"
	"github.com/GriffinCanCode/chatgate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/chatgate/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	bufferSize = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware governs browsers
	},
}

// Sessions resolves the live engine of a session
type Sessions interface {
	GetSession(name string) (engine.Engine, error)
}

// Handler manages event stream connections
type Handler struct {
	sessions Sessions
	log      *logging.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(sessions Sessions, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handler{sessions: sessions, log: log}
}

// Register mounts the stream route
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/api/sessions/:session/events", h.HandleConnection)
}

// HandleConnection upgrades the request and forwards session events until
// the client leaves or the engine stops or fails
func (h *Handler) HandleConnection(c *gin.Context) {
	eng, err := h.sessions.GetSession(c.Param("session"))
	if err != nil {
		c.JSON(apihttp.StatusOf(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	filter := parseFilter(c.Query("events"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	out := make(chan interface{}, bufferSize)
	done := make(chan struct{})

	unsubscribe := eng.Subscribe(func(evt types.Event) {
		if !filter.Subscribed(evt.Event) && evt.Event != types.EventSessionStatus {
			return
		}
		select {
		case out <- evt:
		default:
			h.log.Warn("Dropping event for slow stream client", zap.String("event", evt.Event))
		}
	})
	defer unsubscribe()

	go h.readLoop(conn, out, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case msg := <-out:
			if err := h.send(conn, msg); err != nil {
				return
			}
			if evt, ok := msg.(types.Event); ok && ended(evt) {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
					time.Now().Add(writeWait))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readLoop answers pings and closes done when the client goes away
func (h *Handler) readLoop(conn *websocket.Conn, out chan<- interface{}, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if strings.TrimSpace(string(data)) == "ping" {
			select {
			case out <- map[string]interface{}{"type": "pong"}:
			default:
			}
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, v interface{}) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// parseFilter turns ?events=a,b into a subscription; empty means all
func parseFilter(raw string) types.WebhookConfig {
	var events []string
	for _, e := range strings.Split(raw, ",") {
		if e = strings.TrimSpace(e); e != "" {
			events = append(events, e)
		}
	}
	if len(events) == 0 {
		events = []string{types.AllEvents}
	}
	return types.WebhookConfig{Events: events}
}

// ended reports a status event after which the engine is gone
func ended(evt types.Event) bool {
	if evt.Event != types.EventSessionStatus {
		return false
	}
	payload, ok := evt.Payload.(map[string]interface{})
	if !ok {
		return false
	}
	status, ok := payload["status"].(types.SessionStatus)
	return ok && !status.HasEngine()
}
