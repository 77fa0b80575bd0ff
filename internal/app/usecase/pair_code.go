package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/fardannozami/wa-session-gateway/internal/session"
	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

type PairCodeOutput struct {
	Status string // "connected" | "ready"
	Code   string
	QRCode string // PNG data URL
}

type PairCodeUsecase struct {
	sessions *session.Registry
}

func NewPairCodeUsecase(reg *session.Registry) *PairCodeUsecase {
	return &PairCodeUsecase{sessions: reg}
}

// Execute creates the session when needed and waits for its pairing code.
func (u *PairCodeUsecase) Execute(ctx context.Context, id string) (*PairCodeOutput, error) {
	conn, created, err := u.sessions.GetOrCreate(id)
	if err != nil {
		return nil, err
	}
	if !created {
		conn.Open()
	}

	if conn.State() == session.StateConnected {
		return &PairCodeOutput{Status: "connected"}, nil
	}

	code, err := conn.RequestPairingCode(ctx)
	if errors.Is(err, session.ErrAlreadyConnected) {
		return &PairCodeOutput{Status: "connected"}, nil
	}
	if err != nil {
		return nil, err
	}

	img, err := qrDataURL(code)
	if err != nil {
		return nil, err
	}
	return &PairCodeOutput{Status: "ready", Code: code, QRCode: img}, nil
}

func qrDataURL(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("render qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
