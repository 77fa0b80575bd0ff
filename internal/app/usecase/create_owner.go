package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/fardannozami/wa-session-gateway/internal/domain/phone"
	"github.com/fardannozami/wa-session-gateway/internal/infra/db"
)

var ErrInvalidOwner = errors.New("invalid owner")

type CreateOwnerInput struct {
	Username string
	Email    string
	Phone    string
}

type CreateOwnerOutput struct {
	Owner   db.Owner
	Created bool
}

type OwnerRepository interface {
	Create(ctx context.Context, username, email, phone string) (db.Owner, bool, error)
	Owns(ctx context.Context, id, sessionID string) (bool, error)
}

type CreateOwnerUsecase struct {
	owners OwnerRepository
}

func NewCreateOwnerUsecase(owners OwnerRepository) *CreateOwnerUsecase {
	return &CreateOwnerUsecase{owners: owners}
}

func (u *CreateOwnerUsecase) Execute(ctx context.Context, in CreateOwnerInput) (*CreateOwnerOutput, error) {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" {
		return nil, errors.Join(ErrInvalidOwner, errors.New("username and email are required"))
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, errors.Join(ErrInvalidOwner, err)
	}

	p := ""
	if strings.TrimSpace(in.Phone) != "" {
		normalized, err := phone.Normalize(in.Phone)
		if err != nil {
			return nil, errors.Join(ErrInvalidOwner, err)
		}
		p = normalized
	}

	owner, created, err := u.owners.Create(ctx, in.Username, in.Email, p)
	if err != nil {
		return nil, err
	}
	return &CreateOwnerOutput{Owner: owner, Created: created}, nil
}
