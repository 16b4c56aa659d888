// Package repotest provides in-memory repositories for tests of the layers
// built on top of package repository.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps users and files in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
	files map[primitive.ObjectID]*models.File
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[primitive.ObjectID]*models.User),
		files: make(map[primitive.ObjectID]*models.File),
	}
}

func (s *MemoryStore) Users() repository.UserRepository { return memoryUsers{s} }
func (s *MemoryStore) Files() repository.FileRepository { return memoryFiles{s} }

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, u *models.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	m.s.users[u.ID] = &cp
	return nil
}

func (m memoryUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memoryUsers) Count(context.Context) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return int64(len(m.s.users)), nil
}

type memoryFiles struct{ s *MemoryStore }

func (m memoryFiles) Create(_ context.Context, f *models.File) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	f.ID = primitive.NewObjectID()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if f.ParentID.IsRoot() {
		f.ParentID = models.RootID
	}
	cp := *f
	m.s.files[f.ID] = &cp
	return nil
}

func (m memoryFiles) FindByID(_ context.Context, id primitive.ObjectID) (*models.File, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	f, ok := m.s.files[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m memoryFiles) FindOwned(ctx context.Context, id, userID primitive.ObjectID) (*models.File, error) {
	f, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return f, nil
}

func (m memoryFiles) SetPublic(_ context.Context, id, userID primitive.ObjectID, isPublic bool) (*models.File, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	f, ok := m.s.files[id]
	if !ok || f.UserID != userID {
		return nil, repository.ErrNotFound
	}
	f.IsPublic = isPublic
	cp := *f
	return &cp, nil
}

func (m memoryFiles) ListPage(_ context.Context, userID primitive.ObjectID, parentID models.ParentID, page, pageSize int) (*models.FilePage, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if parentID.IsRoot() {
		parentID = models.RootID
	}
	var matched []*models.File
	for _, f := range m.s.files {
		if f.UserID == userID && f.ParentID == parentID {
			cp := *f
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})

	out := &models.FilePage{Total: int64(len(matched)), Page: page, Files: []*models.File{}}
	if pageSize <= 0 || page < 0 || page >= (len(matched)+pageSize-1)/pageSize {
		return out, nil
	}
	start := page * pageSize
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	out.Files = matched[start:end]
	return out, nil
}

func (m memoryFiles) Count(context.Context) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return int64(len(m.s.files)), nil
}
