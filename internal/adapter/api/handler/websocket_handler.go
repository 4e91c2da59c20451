package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/DanielDss030225/mindfulness-sub001/internal/adapter/api/middleware"
	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	ws "github.com/DanielDss030225/mindfulness-sub001/internal/infrastructure/websocket"
	"github.com/DanielDss030225/mindfulness-sub001/internal/usecase"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/errors"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/logger"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	registry       *usecase.SessionRegistry
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, authMiddleware *middleware.AuthMiddleware, registry *usecase.SessionRegistry) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
		registry:       registry,
	}
}

// clientFrame is what the browser sends upstream: focus changes and read
// receipts.
type clientFrame struct {
	Type           string `json:"type"`
	Scope          string `json:"scope,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

// HandleWebSocket authenticates via the token query parameter (browsers
// cannot set headers on WebSocket handshakes), hooks the user's chat
// session to a notification dispatcher and starts the pumps.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return errors.Unauthorized("Token query parameter is required", nil)
	}

	userID, err := h.authMiddleware.UIDFromToken(c.Request().Context(), token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	session, err := h.registry.GetOrCreate(c.Request().Context(), entity.User{ID: userID})
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	dispatcher := usecase.NewNotificationDispatcher(userID, h.wsManager)
	events, cancel := session.Events()
	dispatcher.Run(events, cancel)

	client := &ws.Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		OnMessage: func(data []byte) {
			h.handleClientFrame(session, dispatcher, data)
		},
	}

	h.wsManager.Register <- client

	go func() {
		client.ReadPump(h.wsManager)
		dispatcher.Stop()
	}()
	go client.WritePump()

	return nil
}

func (h *WebSocketHandler) handleClientFrame(session *usecase.ChatSession, dispatcher *usecase.NotificationDispatcher, data []byte) {
	var frame clientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		logger.Warn("Dropping malformed WebSocket frame: %v", err)
		return
	}

	switch frame.Type {
	case "focus":
		if frame.ConversationID == "" {
			dispatcher.SetFocused("")
			return
		}
		scope, err := h.frameScope(session, frame)
		if err != nil {
			logger.Warn("Ignoring focus frame: %v", err)
			return
		}
		dispatcher.SetFocused(scope.Key())

		// Focusing a conversation implies reading it.
		if err := session.MarkMessagesAsRead(context.Background(), entity.ScopeKind(frame.Scope), frame.ConversationID); err != nil {
			logger.Warn("Mark-read on focus failed: %v", err)
		}

	case "markRead":
		if err := session.MarkMessagesAsRead(context.Background(), entity.ScopeKind(frame.Scope), frame.ConversationID); err != nil {
			logger.Warn("Mark-read frame failed: %v", err)
		}

	default:
		logger.Debug("Ignoring unknown WebSocket frame type %q", frame.Type)
	}
}

func (h *WebSocketHandler) frameScope(session *usecase.ChatSession, frame clientFrame) (entity.Scope, error) {
	switch entity.ScopeKind(frame.Scope) {
	case entity.ScopePrivate:
		key := frame.ConversationID
		if key != "" && !strings.Contains(key, "_") {
			key = entity.ConversationKey(session.User().ID, key)
		}
		return entity.PrivateScope(key), nil
	case entity.ScopeGroup:
		return entity.GroupScope(frame.ConversationID), nil
	case entity.ScopeGlobal:
		return entity.GlobalScope(), nil
	default:
		return entity.Scope{}, errors.BadRequest("Unknown scope", nil)
	}
}
