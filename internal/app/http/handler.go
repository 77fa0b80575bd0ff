package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fardannozami/wa-session-gateway/internal/app/usecase"
	"github.com/fardannozami/wa-session-gateway/internal/dispatch"
	"github.com/fardannozami/wa-session-gateway/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Usecases bundles everything the handlers call.
type Usecases struct {
	CreateSession *usecase.CreateSessionUsecase
	Status        *usecase.SessionStatusUsecase
	ListSessions  *usecase.ListSessionsUsecase
	PairCode      *usecase.PairCodeUsecase
	PairStream    *usecase.PairStreamUsecase
	StopSession   *usecase.StopSessionUsecase
	DeleteSession *usecase.DeleteSessionUsecase
	SendMessage   *usecase.SendMessageUsecase
	SendBatch     *usecase.SendBatchUsecase
	GetJob        *usecase.GetJobUsecase
	CreateOwner   *usecase.CreateOwnerUsecase
}

type Handler struct {
	uc     Usecases
	owners usecase.OwnerRepository
	auth   bool
	log    zerolog.Logger
	tick   time.Duration
}

// NewHandler builds the handler set. owners is only consulted when auth is true.
func NewHandler(uc Usecases, owners usecase.OwnerRepository, auth bool, logger zerolog.Logger) *Handler {
	return &Handler{uc: uc, owners: owners, auth: auth, log: logger, tick: streamInterval}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusFor(err error) int {
	var sendErr *session.SendError
	switch {
	case errors.Is(err, session.ErrInvalidSession),
		errors.Is(err, usecase.ErrInvalidOwner):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, usecase.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrPairingTimeout):
		return http.StatusRequestTimeout
	case errors.Is(err, session.ErrNotConnected),
		errors.Is(err, session.ErrSessionClosed),
		errors.Is(err, session.ErrAlreadyConnected):
		return http.StatusConflict
	case errors.Is(err, dispatch.ErrInvalidPayload):
		return http.StatusUnprocessableEntity
	case errors.As(err, &sendErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	}

	body := ErrorResponse{Error: msg, Detail: err.Error()}
	var ipe *dispatch.InvalidPayloadError
	if errors.As(err, &ipe) && ipe.Index >= 0 {
		idx := ipe.Index
		body.Index = &idx
	}
	c.JSON(code, body)
}

func (h *Handler) badRequest(c *gin.Context, msg string, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Detail: err.Error()})
}
