package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) PairCode(c *gin.Context) {
	out, err := h.uc.PairCode.Execute(c.Request.Context(), c.Param("session"))
	if err != nil {
		h.fail(c, "failed to get pairing code", err)
		return
	}
	c.JSON(http.StatusOK, PairCodeResponse{Status: out.Status, Code: out.Code, QRCode: out.QRCode})
}
