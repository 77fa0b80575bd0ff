package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateSession(c *gin.Context) {
	out, err := h.uc.CreateSession.Execute(c.Request.Context(), c.Param("session"))
	if err != nil {
		h.fail(c, "failed to create session", err)
		return
	}

	code := http.StatusOK
	if out.Created {
		code = http.StatusCreated
	}
	c.JSON(code, CreateSessionResponse{
		Session:          out.Session,
		Created:          out.Created,
		State:            out.State,
		IsConnected:      out.IsConnected,
		PairingAvailable: out.PairingAvailable,
	})
}

func (h *Handler) SessionStatus(c *gin.Context) {
	st, err := h.uc.Status.Execute(c.Request.Context(), c.Param("session"))
	if err != nil {
		h.fail(c, "failed to get session status", err)
		return
	}
	c.JSON(http.StatusOK, toStatusResponse(*st))
}

func (h *Handler) Sessions(c *gin.Context) {
	items, err := h.uc.ListSessions.Execute(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to list sessions", err)
		return
	}

	out := make([]SessionStatusResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toStatusResponse(item))
	}
	c.JSON(http.StatusOK, SessionsResponse{Count: len(out), Sessions: out})
}

func (h *Handler) StopSession(c *gin.Context) {
	st, err := h.uc.StopSession.Execute(c.Request.Context(), c.Param("session"))
	if err != nil {
		h.fail(c, "failed to stop session", err)
		return
	}
	c.JSON(http.StatusOK, toStatusResponse(*st))
}

func (h *Handler) DeleteSession(c *gin.Context) {
	ok, err := h.uc.DeleteSession.Execute(c.Request.Context(), c.Param("session"))
	if err != nil {
		h.fail(c, "failed to delete session", err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
		return
	}
	c.JSON(http.StatusOK, DeleteSessionResponse{Status: "deleted"})
}
