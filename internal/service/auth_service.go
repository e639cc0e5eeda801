package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maheshrc27/composer-api/internal/backend"
	"github.com/maheshrc27/composer-api/internal/models"
	"github.com/maheshrc27/composer-api/internal/repository"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (int64, error)
	Logout(ctx context.Context, userID int64) error
}

type authService struct {
	client *backend.Client
	tokens *tokenStore
	relay  *backend.Relay
	u      repository.UserRepository
}

func NewAuthService(client *backend.Client, tokens *tokenStore, relay *backend.Relay, u repository.UserRepository) AuthService {
	return &authService{
		client: client,
		tokens: tokens,
		relay:  relay,
		u:      u,
	}
}

// Login authenticates against the scheduling backend, stores the bearer
// token, finds or creates the local user record, and starts the user's
// notification relay.
func (s *authService) Login(ctx context.Context, email, password string) (int64, error) {
	if email == "" || password == "" {
		err := errors.New("email or password is empty")
		slog.Info(err.Error())
		return 0, err
	}

	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return 0, err
	}

	user, isExist, err := s.u.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	var userID int64
	if !isExist {
		userID, err = s.u.Create(ctx, nil, &models.User{
			Email: email,
			Name:  resp.Name,
		})
		if err != nil {
			slog.Info(err.Error())
			return 0, err
		}
	} else {
		userID = user.ID
	}

	if err := s.tokens.Save(ctx, userID, resp.Token); err != nil {
		return 0, err
	}

	s.relay.Start(userID)
	return userID, nil
}

func (s *authService) Logout(ctx context.Context, userID int64) error {
	s.relay.Stop(userID)
	return s.tokens.Clear(ctx, userID)
}
