package repository

import (
	"context"
	"errors"

	"github.com/fathima-sithara/files-service/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}

type FileRepository interface {
	Create(ctx context.Context, f *models.File) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.File, error)
	// FindOwned returns ErrNotFound both for a missing record and for one
	// owned by someone else.
	FindOwned(ctx context.Context, id, userID primitive.ObjectID) (*models.File, error)
	SetPublic(ctx context.Context, id, userID primitive.ObjectID, isPublic bool) (*models.File, error)
	// ListPage returns the owner's records under parentID, newest first.
	// page is zero-based.
	ListPage(ctx context.Context, userID primitive.ObjectID, parentID models.ParentID, page, pageSize int) (*models.FilePage, error)
	Count(ctx context.Context) (int64, error)
}
