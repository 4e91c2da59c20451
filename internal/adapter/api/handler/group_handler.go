package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/internal/usecase"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/response"
)

type GroupHandler struct {
	groupUseCase *usecase.GroupUseCase
}

func NewGroupHandler(groupUseCase *usecase.GroupUseCase) *GroupHandler {
	return &GroupHandler{
		groupUseCase: groupUseCase,
	}
}

func (h *GroupHandler) CreateGroup(c echo.Context) error {
	var req usecase.CreateGroupInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	group, err := h.groupUseCase.Create(c.Request().Context(), userID, req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, groupPayload(group))
}

func (h *GroupHandler) GetGroup(c echo.Context) error {
	group, err := h.groupUseCase.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, groupPayload(group))
}

func (h *GroupHandler) ListMyGroups(c echo.Context) error {
	userID := c.Get("uid").(string)

	groups, err := h.groupUseCase.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	payloads := make([]map[string]interface{}, 0, len(groups))
	for _, g := range groups {
		payloads = append(payloads, groupPayload(g))
	}
	return response.Success(c, map[string]interface{}{"groups": payloads})
}

// groupPayload re-adds the id, which is kept out of the stored record.
func groupPayload(g *entity.Group) map[string]interface{} {
	return map[string]interface{}{
		"id":          g.ID,
		"name":        g.Name,
		"description": g.Description,
		"createdBy":   g.CreatedBy,
		"createdAt":   g.CreatedAt,
		"members":     g.Members,
	}
}

func (h *GroupHandler) JoinGroup(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.groupUseCase.Join(c.Request().Context(), c.Param("id"), userID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"status": "joined"})
}

func (h *GroupHandler) LeaveGroup(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.groupUseCase.Leave(c.Request().Context(), c.Param("id"), userID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"status": "left"})
}
