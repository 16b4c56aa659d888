package files

import (
	"context"
	"encoding/base64"
	"errors"
	"math"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/fathima-sithara/files-service/internal/apperr"
	"github.com/fathima-sithara/files-service/internal/metrics"
	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/queue"
	"github.com/fathima-sithara/files-service/internal/repository"
	"github.com/fathima-sithara/files-service/internal/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PageSize is the fixed number of records per listing page.
const PageSize = 20

type UploadInput struct {
	Name     string
	Type     models.FileType
	ParentID models.ParentID
	IsPublic bool
	// Data is the base64 content, required unless Type is folder.
	Data string
}

type Content struct {
	Name     string
	MIMEType string
	Data     []byte
}

type Service struct {
	repo   repository.FileRepository
	store  storage.Store
	jobs   queue.Publisher
	widths map[int]bool
	logger *zap.Logger
}

func NewService(repo repository.FileRepository, store storage.Store, jobs queue.Publisher, variantWidths []int, logger *zap.Logger) *Service {
	widths := make(map[int]bool, len(variantWidths))
	for _, w := range variantWidths {
		widths[w] = true
	}
	return &Service{repo: repo, store: store, jobs: jobs, widths: widths, logger: logger}
}

// Register validates and persists a new record for user. For files and
// images the content is written first, then the metadata, then (images
// only) the thumbnail job, so the worker always finds the record.
func (s *Service) Register(ctx context.Context, user *models.User, in UploadInput) (*models.File, error) {
	if in.Name == "" {
		return nil, apperr.Validation("Missing name")
	}
	if !in.Type.Valid() {
		return nil, apperr.Validation("Missing type")
	}
	if in.Type != models.TypeFolder && in.Data == "" {
		return nil, apperr.Validation("Missing data")
	}
	if err := s.checkParent(ctx, user, in.ParentID); err != nil {
		return nil, err
	}

	rec := &models.File{
		UserID:   user.ID,
		Name:     in.Name,
		Type:     in.Type,
		IsPublic: in.IsPublic,
		ParentID: in.ParentID,
	}
	if rec.ParentID.IsRoot() {
		rec.ParentID = models.RootID
	}

	if in.Type == models.TypeFolder {
		if err := s.repo.Create(ctx, rec); err != nil {
			return nil, apperr.Infrastructure("create folder", err)
		}
		metrics.FilesUploaded.WithLabelValues(string(rec.Type)).Inc()
		return rec, nil
	}

	data, err := base64.StdEncoding.DecodeString(in.Data)
	if err != nil {
		return nil, apperr.Validation("Invalid data")
	}
	key := s.store.NewKey(uuid.NewString())
	if err := s.store.Save(ctx, key, data); err != nil {
		s.logger.Error("content write failed", zap.String("key", key), zap.Error(err))
		return nil, apperr.Infrastructure("write content", err)
	}

	rec.LocalPath = key
	if err := s.repo.Create(ctx, rec); err != nil {
		if rmErr := s.store.Remove(ctx, key); rmErr != nil {
			s.logger.Warn("orphaned content left behind", zap.String("key", key), zap.Error(rmErr))
		}
		return nil, apperr.Infrastructure("create file", err)
	}
	metrics.FilesUploaded.WithLabelValues(string(rec.Type)).Inc()

	if rec.Type == models.TypeImage {
		job := queue.FileJob{UserID: user.ID.Hex(), FileID: rec.ID.Hex()}
		if err := s.jobs.EnqueueFile(ctx, job); err != nil {
			s.logger.Error("thumbnail job not queued", zap.String("file_id", job.FileID), zap.Error(err))
			return nil, apperr.Infrastructure("enqueue thumbnail job", err)
		}
	}
	return rec, nil
}

func (s *Service) checkParent(ctx context.Context, user *models.User, parentID models.ParentID) error {
	if parentID.IsRoot() {
		return nil
	}
	oid, err := primitive.ObjectIDFromHex(string(parentID))
	if err != nil {
		return apperr.Validation("Parent not found")
	}
	parent, err := s.repo.FindOwned(ctx, oid, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Validation("Parent not found")
	}
	if err != nil {
		return apperr.Infrastructure("find parent", err)
	}
	if parent.Type != models.TypeFolder {
		return apperr.Validation("Parent is not a folder")
	}
	return nil
}

// Get returns the record only to its owner; everyone else gets NotFound.
func (s *Service) Get(ctx context.Context, user *models.User, id string) (*models.File, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound()
	}
	f, err := s.repo.FindOwned(ctx, oid, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound()
	}
	if err != nil {
		return nil, apperr.Infrastructure("find file", err)
	}
	return f, nil
}

// List returns page (zero-based) of the user's records under parentID.
func (s *Service) List(ctx context.Context, user *models.User, parentID models.ParentID, page int) ([]*models.File, error) {
	if page < 0 {
		page = 0
	}
	if page > math.MaxInt64/PageSize {
		return []*models.File{}, nil
	}
	res, err := s.repo.ListPage(ctx, user.ID, parentID, page, PageSize)
	if err != nil {
		return nil, apperr.Infrastructure("list files", err)
	}
	for _, f := range res.Files {
		f.LocalPath = ""
	}
	return res.Files, nil
}

func (s *Service) SetPublic(ctx context.Context, user *models.User, id string, isPublic bool) (*models.File, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound()
	}
	f, err := s.repo.SetPublic(ctx, oid, user.ID, isPublic)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound()
	}
	if err != nil {
		return nil, apperr.Infrastructure("update file", err)
	}
	return f, nil
}

// ReadContent serves the bytes of a record, or of one of its variants when
// size is set. requester may be nil for anonymous calls. A variant that the
// worker has not produced yet reads as NotFound.
func (s *Service) ReadContent(ctx context.Context, requester *models.User, id, size string) (*Content, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound()
	}
	f, err := s.repo.FindByID(ctx, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound()
	}
	if err != nil {
		return nil, apperr.Infrastructure("find file", err)
	}
	if !f.IsPublic && (requester == nil || requester.ID != f.UserID) {
		return nil, apperr.NotFound()
	}
	if f.Type == models.TypeFolder {
		return nil, apperr.InvalidOperation("A folder doesn't have content")
	}

	key := f.LocalPath
	if size != "" {
		// only configured widths are ever written, so any other size has no content
		w, err := strconv.Atoi(size)
		if err != nil || !s.widths[w] {
			return nil, apperr.NotFound()
		}
		key = storage.VariantKey(key, w)
	}

	data, err := s.store.Open(ctx, key)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, apperr.NotFound()
	}
	if err != nil {
		return nil, apperr.Infrastructure("read content", err)
	}

	ct := mime.TypeByExtension(filepath.Ext(f.Name))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return &Content{Name: f.Name, MIMEType: ct, Data: data}, nil
}
