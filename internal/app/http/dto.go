package http

import (
	"time"

	"github.com/fardannozami/wa-session-gateway/internal/app/usecase"
	"github.com/fardannozami/wa-session-gateway/internal/dispatch"
	"github.com/fardannozami/wa-session-gateway/internal/infra/db"
	"github.com/fardannozami/wa-session-gateway/internal/session"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Index  *int   `json:"index,omitempty"`
}

type CreateSessionResponse struct {
	Session          string `json:"session"`
	Created          bool   `json:"created"`
	State            string `json:"state"`
	IsConnected      bool   `json:"isConnected"`
	PairingAvailable bool   `json:"pairingAvailable"`
}

type SessionStatusResponse struct {
	Session          string `json:"session"`
	State            string `json:"state"`
	IsConnected      bool   `json:"isConnected"`
	AutoReconnect    bool   `json:"autoReconnect"`
	AttemptCount     int    `json:"attemptCount"`
	PairingAvailable bool   `json:"pairingAvailable"`
	PairingAgeMs     *int64 `json:"pairingAgeMs"`
}

func toStatusResponse(st usecase.SessionStatus) SessionStatusResponse {
	out := SessionStatusResponse{
		Session:          st.Session,
		State:            st.State,
		IsConnected:      st.IsConnected,
		AutoReconnect:    st.AutoReconnect,
		AttemptCount:     st.AttemptCount,
		PairingAvailable: st.PairingAvailable,
	}
	if st.HasPairingCode {
		ms := st.PairingAge.Milliseconds()
		out.PairingAgeMs = &ms
	}
	return out
}

type SessionsResponse struct {
	Count    int                     `json:"count"`
	Sessions []SessionStatusResponse `json:"sessions"`
}

type SessionsStreamResponse struct {
	Status   string                  `json:"status"`
	Sessions []SessionStatusResponse `json:"sessions,omitempty"`
	Detail   string                  `json:"detail,omitempty"`
}

type DeleteSessionResponse struct {
	Status string `json:"status"`
}

type PairCodeResponse struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	QRCode string `json:"qrCode,omitempty"`
}

type PairStreamResponse struct {
	Status       string `json:"status"`
	PairingCode  string `json:"pairingCode,omitempty"`
	QRCode       string `json:"qrCode,omitempty"`
	ExpiresIn    int    `json:"expiresIn,omitempty"`
	AttemptCount int    `json:"attemptCount"`
	Detail       string `json:"detail,omitempty"`
}

type SendMessageResponse struct {
	Status   string            `json:"status"`
	Target   string            `json:"target"`
	Receipts []session.Receipt `json:"receipts"`
}

// maxDelayMs caps the pause between items at one day.
const maxDelayMs = 86400000

type BatchRequest struct {
	Target   string             `json:"target" binding:"required"`
	Messages []dispatch.Content `json:"messages" binding:"required"`
	DelayMs  *int64             `json:"delayMs" binding:"omitempty,min=0,max=86400000"`
	Async    bool               `json:"async"`
}

type FanoutRequest struct {
	Messages []dispatch.Request `json:"messages" binding:"required"`
	DelayMs  *int64             `json:"delayMs" binding:"omitempty,min=0,max=86400000"`
	Async    bool               `json:"async"`
}

func delayFrom(ms *int64) *time.Duration {
	if ms == nil {
		return nil
	}
	v := min(max(*ms, 0), maxDelayMs)
	d := time.Duration(v) * time.Millisecond
	return &d
}

type JobResponse struct {
	ID         string                `json:"id"`
	Session    string                `json:"session"`
	Mode       string                `json:"mode"`
	Status     string                `json:"status"`
	Items      int                   `json:"items"`
	Result     *dispatch.BatchResult `json:"result,omitempty"`
	Error      string                `json:"error,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
	FinishedAt *time.Time            `json:"finishedAt,omitempty"`
}

func toJobResponse(j usecase.Job) JobResponse {
	out := JobResponse{
		ID:        j.ID,
		Session:   j.Session,
		Mode:      j.Mode,
		Status:    string(j.Status),
		Items:     j.Items,
		Result:    j.Result,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
	}
	if !j.FinishedAt.IsZero() {
		t := j.FinishedAt
		out.FinishedAt = &t
	}
	return out
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
}

type CreateUserResponse struct {
	User    db.Owner `json:"user"`
	Created bool     `json:"created"`
}
