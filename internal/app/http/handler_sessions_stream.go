package http

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	streamInterval  = 2 * time.Second
	streamKeepalive = 15 * time.Second
)

func setEventStreamHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.Flush()
}

func (h *Handler) SessionsStream(c *gin.Context) {
	setEventStreamHeaders(c)

	ctx := c.Request.Context()
	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	lastPayload := ""
	lastSent := time.Time{}

	send := func() {
		items, err := h.uc.ListSessions.Execute(ctx)
		if err != nil {
			c.SSEvent("sessions", SessionsStreamResponse{Status: "failed", Detail: err.Error()})
			c.Writer.Flush()
			lastSent = time.Now()
			return
		}

		sessions := make([]SessionStatusResponse, 0, len(items))
		for _, item := range items {
			st := toStatusResponse(item)
			// Age changes every tick; leave it out so unchanged sessions stay quiet.
			st.PairingAgeMs = nil
			sessions = append(sessions, st)
		}
		payload := SessionsStreamResponse{Status: "ok", Sessions: sessions}

		data, err := json.Marshal(payload)
		if err != nil {
			return
		}

		shouldSend := lastPayload == "" || string(data) != lastPayload
		if !shouldSend && time.Since(lastSent) > streamKeepalive {
			shouldSend = true
		}
		if shouldSend {
			c.SSEvent("sessions", payload)
			c.Writer.Flush()
			lastPayload = string(data)
			lastSent = time.Now()
		}
	}

	send()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			send()
		}
	}
}
