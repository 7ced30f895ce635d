package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	chatService "github.com/BuysCode/giovannibot/backend/internal/service/chat"
	"github.com/BuysCode/giovannibot/backend/pkg/utils"
)

const writeTimeout = 10 * time.Second

// Handler runs a chat session over a websocket: the browser sends submit and
// changeRegion frames and receives a snapshot after every transcript change.
type Handler struct {
	chatSvc  *chatService.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New creates the websocket handler.
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SubmitMessage carries user text.
type SubmitMessage struct {
	Text string `json:"text"`
}

// ChangeRegionMessage switches the session to another region.
type ChangeRegionMessage struct {
	Region string `json:"region"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// conn serialises writes; gorilla connections allow one concurrent writer.
type conn struct {
	ws        *websocket.Conn
	sessionID string
	mu        sync.Mutex
}

func (c *conn) send(msgType string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(outgoingMessage{
		Type:      msgType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		_ = utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("session", sessionID), zap.Error(err))
		return
	}
	defer wsConn.Close()

	logger := h.logger.With(zap.String("session", sessionID))
	c := &conn{ws: wsConn, sessionID: sessionID}

	updates, cancel := session.Subscribe()
	defer cancel()

	stop := make(chan struct{})
	pushDone := make(chan struct{})
	go func() {
		defer close(pushDone)
		for snap := range updates {
			if err := c.send("snapshot", snap); err != nil {
				logger.Debug("failed to push snapshot", zap.Error(err))
				return
			}
		}

		select {
		case <-stop:
			return
		default:
		}

		// The session was deleted: tell the client and unblock the reader.
		_ = c.send("closed", nil)
		c.mu.Lock()
		_ = wsConn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
			time.Now().Add(writeTimeout))
		c.mu.Unlock()
		_ = wsConn.SetReadDeadline(time.Now().Add(writeTimeout))
	}()

	for {
		var msg inboundMessage
		if err := wsConn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			break
		}

		if err := h.dispatch(r, session, c, msg); err != nil {
			logger.Debug("failed to answer websocket frame", zap.Error(err))
			break
		}
	}

	close(stop)
	cancel()
	<-pushDone
}

func (h *Handler) dispatch(r *http.Request, session *chatService.Session, c *conn, msg inboundMessage) error {
	switch msg.Type {
	case "submit":
		var payload SubmitMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return c.send("error", "invalid submit payload")
		}
		if _, accepted := session.Submit(r.Context(), payload.Text); !accepted {
			return c.send("ignored", nil)
		}
		return nil
	case "changeRegion":
		var payload ChangeRegionMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return c.send("error", "invalid changeRegion payload")
		}
		session.ChangeRegion(payload.Region)
		return nil
	case "ping":
		return c.send("pong", nil)
	default:
		return c.send("error", "unknown message type: "+msg.Type)
	}
}
