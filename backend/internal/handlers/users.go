package handlers

import (
	"net/http"

	"taskboard/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) ListMembers(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	members, err := h.users.ListMembers(c.Request.Context(), identity)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "User not found")
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
