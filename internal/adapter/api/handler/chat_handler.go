package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/internal/usecase"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/errors"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/response"
)

type ChatHandler struct {
	registry *usecase.SessionRegistry
}

func NewChatHandler(registry *usecase.SessionRegistry) *ChatHandler {
	return &ChatHandler{
		registry: registry,
	}
}

type sendMessageRequest struct {
	Scope    string `json:"scope" validate:"required,oneof=global private group"`
	Message  string `json:"message" validate:"required"`
	TargetID string `json:"targetId,omitempty"`
}

type markReadRequest struct {
	Scope          string `json:"scope" validate:"required,oneof=private group"`
	ConversationID string `json:"conversationId" validate:"required"`
}

func (h *ChatHandler) session(c echo.Context) (*usecase.ChatSession, error) {
	userID, ok := c.Get("uid").(string)
	if !ok || userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	return h.registry.GetOrCreate(c.Request().Context(), entity.User{ID: userID})
}

// SendMessage posts one message into the requested scope.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	session, err := h.session(c)
	if err != nil {
		return response.Error(c, err)
	}

	key, err := session.SendMessage(c.Request().Context(), usecase.SendMessageInput{
		Kind:     entity.ScopeKind(req.Scope),
		Body:     req.Message,
		TargetID: req.TargetID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]string{"messageKey": key})
}

// GetMessages returns the most recent messages of a scope, oldest first.
func (h *ChatHandler) GetMessages(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return response.Error(c, err)
	}

	scope, err := h.resolveScope(session, c.QueryParam("scope"), c.QueryParam("conversationId"))
	if err != nil {
		return response.Error(c, err)
	}

	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	messages, err := session.FetchRecent(c.Request().Context(), scope, limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"scope":    scope.Key(),
		"messages": messages,
	})
}

// MarkRead flags a conversation read and zeroes its unread counters.
func (h *ChatHandler) MarkRead(c echo.Context) error {
	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	session, err := h.session(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := session.MarkMessagesAsRead(c.Request().Context(), entity.ScopeKind(req.Scope), req.ConversationID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"totalUnread": session.TotalUnreadCount(),
	})
}

// SearchUsers matches other users by name or email.
func (h *ChatHandler) SearchUsers(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return response.Error(c, err)
	}

	users, err := session.SearchUsers(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{"users": users})
}

// GetConversations lists the user's conversation summaries.
func (h *ChatHandler) GetConversations(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"conversations": session.Conversations(),
		"totalUnread":   session.TotalUnreadCount(),
	})
}

// GetOnlineUsers lists currently online user ids.
func (h *ChatHandler) GetOnlineUsers(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"onlineUsers": session.OnlineUsers(),
	})
}

// GetUnreadCount returns the badge total.
func (h *ChatHandler) GetUnreadCount(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"totalUnread": session.TotalUnreadCount(),
	})
}

// Logout tears the session down and writes presence offline.
func (h *ChatHandler) Logout(c echo.Context) error {
	userID, ok := c.Get("uid").(string)
	if !ok || userID == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	h.registry.Remove(userID)
	return response.Success(c, map[string]string{"status": "logged out"})
}

func (h *ChatHandler) resolveScope(session *usecase.ChatSession, kind, conversationID string) (entity.Scope, error) {
	switch entity.ScopeKind(kind) {
	case entity.ScopeGlobal, entity.ScopeKind(""):
		return entity.GlobalScope(), nil
	case entity.ScopePrivate:
		if conversationID == "" {
			return entity.Scope{}, errors.MissingTarget("private")
		}
		key := conversationID
		if !strings.Contains(key, "_") {
			key = entity.ConversationKey(session.User().ID, conversationID)
		}
		return entity.PrivateScope(key), nil
	case entity.ScopeGroup:
		if conversationID == "" {
			return entity.Scope{}, errors.MissingTarget("group")
		}
		return entity.GroupScope(conversationID), nil
	default:
		return entity.Scope{}, errors.BadRequest("Unknown scope", nil)
	}
}
