package http

import (
	"net/http"

	"github.com/fardannozami/wa-session-gateway/internal/app/usecase"
	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	out, err := h.uc.CreateOwner.Execute(c.Request.Context(), usecase.CreateOwnerInput{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		h.fail(c, "failed to create user", err)
		return
	}

	code := http.StatusOK
	if out.Created {
		code = http.StatusCreated
	}
	c.JSON(code, CreateUserResponse{User: out.Owner, Created: out.Created})
}
