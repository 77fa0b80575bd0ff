package http

import (
	"net/http"

	"github.com/fardannozami/wa-session-gateway/internal/app/usecase"
	"github.com/fardannozami/wa-session-gateway/internal/dispatch"
	"github.com/gin-gonic/gin"
)

func (h *Handler) SendMessage(c *gin.Context) {
	var req dispatch.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	out, err := h.uc.SendMessage.Execute(c.Request.Context(), c.Param("session"), req)
	if err != nil {
		h.fail(c, "failed to send message", err)
		return
	}
	c.JSON(http.StatusOK, SendMessageResponse{Status: "sent", Target: out.Target, Receipts: out.Receipts})
}

func (h *Handler) SendBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	out, err := h.uc.SendBatch.Batch(c.Request.Context(), usecase.BatchInput{
		Session: c.Param("session"),
		Target:  req.Target,
		Items:   req.Messages,
		Delay:   delayFrom(req.DelayMs),
		Async:   req.Async,
	})
	if err != nil {
		h.fail(c, "failed to send batch", err)
		return
	}
	h.writeBatch(c, out)
}

func (h *Handler) SendFanout(c *gin.Context) {
	var req FanoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	out, err := h.uc.SendBatch.Fanout(c.Request.Context(), usecase.FanoutInput{
		Session:  c.Param("session"),
		Messages: req.Messages,
		Delay:    delayFrom(req.DelayMs),
		Async:    req.Async,
	})
	if err != nil {
		h.fail(c, "failed to send fanout", err)
		return
	}
	h.writeBatch(c, out)
}

func (h *Handler) writeBatch(c *gin.Context, out *usecase.BatchOutput) {
	if out.Job != nil {
		c.JSON(http.StatusAccepted, toJobResponse(*out.Job))
		return
	}
	c.JSON(http.StatusOK, out.Result)
}

func (h *Handler) Job(c *gin.Context) {
	job, err := h.uc.GetJob.Execute(c.Request.Context(), c.Param("job"))
	if err != nil {
		h.fail(c, "failed to get job", err)
		return
	}
	c.JSON(http.StatusOK, toJobResponse(*job))
}
