package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fathima-sithara/files-service/internal/metrics"
	"github.com/fathima-sithara/files-service/internal/queue"
	"github.com/fathima-sithara/files-service/internal/repository"
	"github.com/fathima-sithara/files-service/internal/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Validation failures are returned wrapped with queue.Permanent so the
// consumer dead-letters them without retrying.
var (
	ErrMissingFileID = errors.New("missing fileId")
	ErrMissingUserID = errors.New("missing userId")
	ErrFileNotFound  = errors.New("file not found")
	ErrUserNotFound  = errors.New("user not found")
)

// Processor executes the background jobs emitted by the request path.
type Processor struct {
	files  repository.FileRepository
	users  repository.UserRepository
	store  storage.Store
	widths []int
	logger *zap.Logger
}

func NewProcessor(files repository.FileRepository, users repository.UserRepository, store storage.Store, widths []int, logger *zap.Logger) *Processor {
	return &Processor{files: files, users: users, store: store, widths: widths, logger: logger}
}

// ProcessFileJob writes every configured variant of the job's image next to
// its original, or none of them.
func (p *Processor) ProcessFileJob(ctx context.Context, job queue.FileJob) error {
	if job.FileID == "" {
		return queue.Permanent(ErrMissingFileID)
	}
	if job.UserID == "" {
		return queue.Permanent(ErrMissingUserID)
	}
	fileID, err := primitive.ObjectIDFromHex(job.FileID)
	if err != nil {
		return queue.Permanent(ErrFileNotFound)
	}
	userID, err := primitive.ObjectIDFromHex(job.UserID)
	if err != nil {
		return queue.Permanent(ErrFileNotFound)
	}

	rec, err := p.files.FindOwned(ctx, fileID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return queue.Permanent(ErrFileNotFound)
	}
	if err != nil {
		return fmt.Errorf("load file %s: %w", job.FileID, err)
	}
	if rec.LocalPath == "" {
		return queue.Permanent(fmt.Errorf("file %s has no content", job.FileID))
	}

	start := time.Now()
	src, err := p.store.Open(ctx, rec.LocalPath)
	if err != nil {
		return fmt.Errorf("read original %s: %w", job.FileID, err)
	}
	variants, err := Derive(ctx, src, p.widths)
	if err != nil {
		// same bytes would fail the same way on every attempt
		return queue.Permanent(fmt.Errorf("derive variants of %s: %w", job.FileID, err))
	}
	if err := p.writeAll(ctx, rec.LocalPath, variants); err != nil {
		return err
	}
	metrics.ThumbnailDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("thumbnails written", zap.String("file_id", job.FileID), zap.Int("variants", len(variants)))
	return nil
}

func (p *Processor) writeAll(ctx context.Context, key string, variants []Variant) error {
	written := make([]string, 0, len(variants))
	for _, v := range variants {
		vk := storage.VariantKey(key, v.Width)
		if err := p.store.Save(ctx, vk, v.Data); err != nil {
			for _, k := range written {
				if rmErr := p.store.Remove(ctx, k); rmErr != nil {
					p.logger.Warn("variant cleanup failed", zap.String("key", k), zap.Error(rmErr))
				}
			}
			return fmt.Errorf("write variant %s: %w", vk, err)
		}
		written = append(written, vk)
	}
	return nil
}

// ProcessUserJob greets a newly registered user.
func (p *Processor) ProcessUserJob(ctx context.Context, job queue.UserJob) error {
	if job.UserID == "" {
		return queue.Permanent(ErrMissingUserID)
	}
	id, err := primitive.ObjectIDFromHex(job.UserID)
	if err != nil {
		return queue.Permanent(ErrUserNotFound)
	}
	u, err := p.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return queue.Permanent(ErrUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("load user %s: %w", job.UserID, err)
	}
	p.logger.Info("Welcome " + u.Email)
	return nil
}
