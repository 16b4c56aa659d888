package users

import (
	"context"
	"errors"
	"strings"

	"github.com/fathima-sithara/files-service/internal/apperr"
	"github.com/fathima-sithara/files-service/internal/auth"
	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/queue"
	"github.com/fathima-sithara/files-service/internal/repository"
	"go.uber.org/zap"
)

type Service struct {
	repo     repository.UserRepository
	jobs     queue.Publisher
	hashCost int
	logger   *zap.Logger
}

func NewService(repo repository.UserRepository, jobs queue.Publisher, hashCost int, logger *zap.Logger) *Service {
	return &Service{repo: repo, jobs: jobs, hashCost: hashCost, logger: logger}
}

// Register creates the account and queues the welcome job for it.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.Validation("Missing email")
	}
	if password == "" {
		return nil, apperr.Validation("Missing password")
	}

	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil, apperr.Validation("Already exist")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Infrastructure("find user", err)
	}

	hash, err := auth.HashPassword(password, s.hashCost)
	if err != nil {
		return nil, apperr.Validation("Invalid password")
	}
	u := &models.User{Email: email, Password: hash}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Validation("Already exist")
		}
		return nil, apperr.Infrastructure("create user", err)
	}

	if err := s.jobs.EnqueueUser(ctx, queue.UserJob{UserID: u.ID.Hex()}); err != nil {
		s.logger.Error("welcome job not queued", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		return nil, apperr.Infrastructure("enqueue welcome job", err)
	}
	return u, nil
}
