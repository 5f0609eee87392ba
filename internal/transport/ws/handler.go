package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"bizplanner/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// originAllowed matches the Origin header against the comma separated
// cors.allowed_origins value. Requests without an Origin come from
// non-browser clients and are accepted.
func originAllowed(allowed, origin string) bool {
	if origin == "" {
		return true
	}
	for _, o := range strings.Split(allowed, ",") {
		o = strings.TrimSpace(o)
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// UpdateAnswerPayload is the client payload for an update_answer message
type UpdateAnswerPayload struct {
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
}

// Handler handles WebSocket connections
type Handler struct {
	upgrader   websocket.Upgrader
	hub        *Hub
	authSvc    *service.AuthService
	wizardSvc  *service.WizardService
	previewSvc *service.PreviewService
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc *service.AuthService, wizardSvc *service.WizardService, previewSvc *service.PreviewService, allowedOrigins string) *Handler {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
		hub:        hub,
		authSvc:    authSvc,
		wizardSvc:  wizardSvc,
		previewSvc: previewSvc,
	}
}

// SessionWS handles GET /v1/ws/sessions/{id}
func (h *Handler) SessionWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if _, err := h.wizardSvc.Get(r.Context(), id, claims.UserID); err != nil {
		switch {
		case eris.Is(err, service.ErrForbidden):
			http.Error(w, "session belongs to another user", http.StatusForbidden)
		case eris.Is(err, service.ErrSessionNotFound):
			http.Error(w, "session not found", http.StatusNotFound)
		default:
			http.Error(w, "session unavailable", http.StatusBadGateway)
		}
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &Connection{
		SessionID: id,
		UserID:    claims.UserID,
		Send:      make(chan []byte, 256),
		Hub:       h.hub,
	}

	// The current preview goes out first so a reconnecting tab is never blank.
	if p, err := h.previewSvc.Current(r.Context(), id); err == nil {
		if data, err := encode(service.MsgPreviewUpdate, p); err == nil {
			conn.Send <- data
		}
	}

	h.hub.Register(conn)

	h.hub.log.Info("websocket connected", zap.String("session", id), zap.String("user", claims.UserID))

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.hub.log.Warn("websocket read failed", zap.String("session", conn.SessionID), zap.Error(err))
			}
			break
		}
		h.dispatch(conn, data)
	}
}

func (h *Handler) dispatch(conn *Connection, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		h.reply(conn, "invalid message")
		return
	}

	switch msg.Type {
	case MsgUpdateAnswer:
		var p UpdateAnswerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			h.reply(conn, "invalid update_answer payload")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		if err := h.wizardSvc.UpdateAnswer(ctx, conn.SessionID, conn.UserID, p.QuestionID, p.Text); err != nil {
			h.reply(conn, err.Error())
		}
	default:
		h.reply(conn, "unknown message type "+string(msg.Type))
	}
}

// reply sends an error to the one connection that caused it
func (h *Handler) reply(conn *Connection, message string) {
	h.hub.SendTo(conn, service.MsgError, map[string]string{"error": message})
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
