package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/session"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Metrics receives WebSocket bookkeeping
type Metrics interface {
	RecordWSMessage(direction, msgType string)
	IncWSConnections()
	DecWSConnections()
}

// Handler streams a session's console and render updates over WebSocket
// and accepts run, clear and toggle commands
type Handler struct {
	sessions  *session.Manager
	metrics   Metrics
	logger    *zap.Logger
	readLimit int64
}

// NewHandler creates a new WebSocket handler. metrics may be nil.
func NewHandler(sessions *session.Manager, metrics Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sessions:  sessions,
		metrics:   metrics,
		logger:    logger,
		readLimit: int64(utils.MaxSourceSize + utils.MaxMessageSize),
	}
}

// HandleConnection upgrades /sessions/:id/stream and serves it until the
// client leaves or the session goes away
func (h *Handler) HandleConnection(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	log := h.logger.With(zap.String("session_id", s.ID.String()))
	cl := newClient(conn, log, h.metrics)
	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	go cl.writeLoop()
	defer cl.shutdown()

	// Attach before the snapshot: a racing entry may arrive twice, never
	// zero times. Clients drop entries whose sequence they already hold.
	detach := s.Attach(cl)
	defer detach()
	unsubscribe := s.Target().Subscribe(cl.render)
	defer unsubscribe()

	cl.enqueue(types.WSMessage{
		Type:    types.WSSystem,
		Message: "Connected to playground session " + s.ID.String(),
		Data:    s.Info(),
	})
	html := s.Target().HTML()
	visible := s.Sink().Visible()
	cl.enqueue(types.WSMessage{
		Type:    types.WSSnapshot,
		Banner:  s.Sink().Banner(),
		Entries: s.Sink().Entries(),
		Visible: &visible,
		HTML:    &html,
	})

	h.readLoop(c.Request.Context(), cl, s, log)
}

func (h *Handler) readLoop(ctx context.Context, cl *client, s *session.Session, log *zap.Logger) {
	cl.conn.SetReadLimit(h.readLimit)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg types.WSMessage
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}

		switch msg.Type {
		case types.WSPing:
			cl.enqueue(types.WSMessage{Type: types.WSPong})
		case types.WSRun:
			h.handleRun(ctx, cl, s, msg)
		case types.WSClear:
			s.Clear()
		case types.WSToggle:
			s.ToggleVisibility()
		default:
			cl.sendError("unknown message type")
		}

		select {
		case <-cl.done:
			return
		default:
		}
	}
}

func (h *Handler) handleRun(ctx context.Context, cl *client, s *session.Session, msg types.WSMessage) {
	report, err := h.sessions.Run(ctx, s.ID.String(), types.RunRequest{
		Source:    msg.Source,
		SnippetID: msg.SnippetID,
	})
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			cl.sendError("session closed")
			cl.shutdown()
			return
		}
		cl.sendError(err.Error())
		return
	}
	cl.enqueue(types.WSMessage{Type: types.WSResult, Data: report})
}
