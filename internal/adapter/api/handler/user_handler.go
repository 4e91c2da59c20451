package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/DanielDss030225/mindfulness-sub001/internal/usecase"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/errors"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	userID := c.Get("uid").(string)

	user, err := h.userUseCase.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req usecase.UpdateProfileInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	user, err := h.userUseCase.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

// UploadProfilePicture accepts a multipart image and stores it as the
// user's profile picture.
func (h *UserHandler) UploadProfilePicture(c echo.Context) error {
	userID := c.Get("uid").(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("Image file is required", err))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read uploaded file", err))
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")

	user, err := h.userUseCase.UpdateProfilePicture(c.Request().Context(), userID, file, contentType)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}
