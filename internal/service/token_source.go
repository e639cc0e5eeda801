package service

import (
	"context"
	"errors"

	"github.com/maheshrc27/composer-api/internal/repository"
	"github.com/maheshrc27/composer-api/pkg/utils"
)

var ErrNoBackendToken = errors.New("no backend token stored for user")

// tokenStore implements backend.TokenSource over the tokens repository.
// Tokens are kept encrypted at rest and read fresh on every request.
type tokenStore struct {
	repo      repository.TokenRepository
	secretKey string
}

func NewTokenStore(repo repository.TokenRepository, secretKey string) *tokenStore {
	return &tokenStore{repo: repo, secretKey: secretKey}
}

func (t *tokenStore) Token(ctx context.Context, userID int64) (string, error) {
	encrypted, exists, err := t.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrNoBackendToken
	}
	return utils.Decrypt(encrypted, []byte(t.secretKey))
}

func (t *tokenStore) Clear(ctx context.Context, userID int64) error {
	return t.repo.Remove(ctx, userID)
}

func (t *tokenStore) Save(ctx context.Context, userID int64, token string) error {
	encrypted, err := utils.Encrypt([]byte(token), []byte(t.secretKey))
	if err != nil {
		return err
	}
	return t.repo.Upsert(ctx, userID, encrypted)
}
