package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/composer-api/internal/repository"
	"github.com/maheshrc27/composer-api/internal/transfer"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*transfer.UserInfo, error)
	RemoveUser(ctx context.Context, userID int64) error
}

type userService struct {
	u repository.UserRepository
	t repository.TokenRepository
}

func NewUserService(u repository.UserRepository, t repository.TokenRepository) UserService {
	return &userService{
		u: u,
		t: t,
	}
}

// GetUserInfo returns the dashboard profile, including whether a backend
// token is on file. The frontend uses the flag to decide between showing
// the composer and the login form.
func (s *userService) GetUserInfo(ctx context.Context, id int64) (*transfer.UserInfo, error) {
	user, isExist, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Error getting user info")
	}

	if !isExist {
		err = errors.New("User not found")
		slog.Info(err.Error())
		return nil, fmt.Errorf("User doesn't exist")
	}

	_, connected, err := s.t.Get(ctx, id)
	if err != nil {
		slog.Info(err.Error())
		connected = false
	}

	return &transfer.UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Connected: connected,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *userService) RemoveUser(ctx context.Context, userID int64) error {
	if err := s.t.Remove(ctx, userID); err != nil {
		slog.Info(err.Error())
	}
	return s.u.Remove(ctx, userID)
}
