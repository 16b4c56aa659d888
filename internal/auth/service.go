package auth

import (
	"context"
	"errors"
	"time"

	"github.com/fathima-sithara/files-service/internal/apperr"
	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/repository"
	"github.com/fathima-sithara/files-service/internal/session"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenPrefix = "auth_"

func TokenKey(token string) string { return tokenPrefix + token }

type Service struct {
	users     repository.UserRepository
	sessions  session.Store
	ttl       time.Duration
	dummyHash []byte
	logger    *zap.Logger
}

func NewService(users repository.UserRepository, sessions session.Store, ttl time.Duration, hashCost int, logger *zap.Logger) (*Service, error) {
	// compared against when the email is unknown so both failure paths cost one bcrypt check
	dummy, err := HashPassword(uuid.NewString(), hashCost)
	if err != nil {
		return nil, err
	}
	return &Service{
		users:     users,
		sessions:  sessions,
		ttl:       ttl,
		dummyHash: []byte(dummy),
		logger:    logger,
	}, nil
}

// Login checks the Basic credentials in authorization and issues a token.
func (s *Service) Login(ctx context.Context, authorization string) (string, error) {
	email, password, ok := ParseBasic(authorization)
	if !ok {
		return "", apperr.Unauthorized()
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", apperr.Infrastructure("find user", err)
	}
	hash := s.dummyHash
	if user != nil {
		hash = []byte(user.Password)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil || user == nil {
		return "", apperr.Unauthorized()
	}

	token := uuid.NewString()
	if err := s.sessions.Set(ctx, TokenKey(token), user.ID.Hex(), s.ttl); err != nil {
		return "", apperr.Infrastructure("store session", err)
	}
	s.logger.Debug("session created", zap.String("user_id", user.ID.Hex()))
	return token, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apperr.Unauthorized()
	}
	_, found, err := s.sessions.Get(ctx, TokenKey(token))
	if err != nil {
		return apperr.Infrastructure("read session", err)
	}
	if !found {
		return apperr.Unauthorized()
	}
	if err := s.sessions.Del(ctx, TokenKey(token)); err != nil {
		return apperr.Infrastructure("delete session", err)
	}
	return nil
}

// Resolve returns nil without error when the token is unknown, expired, or
// points at a user that no longer exists.
func (s *Service) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	userID, found, err := s.sessions.Get(ctx, TokenKey(token))
	if err != nil {
		return nil, apperr.Infrastructure("read session", err)
	}
	if !found {
		return nil, nil
	}
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Infrastructure("find user", err)
	}
	return user, nil
}
