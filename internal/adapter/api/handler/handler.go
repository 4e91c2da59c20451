package handler

import (
	"github.com/DanielDss030225/mindfulness-sub001/internal/usecase"
)

var (
	chatHandler  *ChatHandler
	groupHandler *GroupHandler
	userHandler  *UserHandler
)

func Setup(
	registry *usecase.SessionRegistry,
	groupUseCase *usecase.GroupUseCase,
	userUseCase *usecase.UserUseCase,
) {
	chatHandler = NewChatHandler(registry)
	groupHandler = NewGroupHandler(groupUseCase)
	userHandler = NewUserHandler(userUseCase)
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetGroupHandler() *GroupHandler {
	return groupHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}
