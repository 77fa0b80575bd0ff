package http

import (
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) PairStream(c *gin.Context) {
	session := c.Param("session")
	if err := h.uc.PairStream.Start(c.Request.Context(), session); err != nil {
		h.fail(c, "failed to start pairing", err)
		return
	}

	setEventStreamHeaders(c)

	ctx := c.Request.Context()
	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	lastStatus := ""
	lastCode := ""

	send := func() bool {
		out, done, err := h.uc.PairStream.Next(ctx, session)
		if err != nil {
			c.SSEvent("pair", PairStreamResponse{Status: "failed", Detail: err.Error()})
			c.Writer.Flush()
			return true
		}

		if out.Status != lastStatus || out.PairingCode != lastCode {
			c.SSEvent("pair", PairStreamResponse{
				Status:       out.Status,
				PairingCode:  out.PairingCode,
				QRCode:       out.QRCode,
				ExpiresIn:    out.ExpiresIn,
				AttemptCount: out.AttemptCount,
			})
			c.Writer.Flush()
			lastStatus = out.Status
			lastCode = out.PairingCode
		}
		return done
	}

	if send() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if send() {
				return
			}
		}
	}
}
