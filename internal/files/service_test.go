package files

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/fathima-sithara/files-service/internal/apperr"
	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/queue"
	"github.com/fathima-sithara/files-service/internal/repository"
	"github.com/fathima-sithara/files-service/internal/repository/repotest"
	"github.com/fathima-sithara/files-service/internal/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakePublisher struct {
	fileJobs []queue.FileJob
	err      error
}

func (p *fakePublisher) EnqueueFile(_ context.Context, job queue.FileJob) error {
	if p.err != nil {
		return p.err
	}
	p.fileJobs = append(p.fileJobs, job)
	return nil
}

func (p *fakePublisher) EnqueueUser(context.Context, queue.UserJob) error { return p.err }

type fixture struct {
	svc   *Service
	repo  repository.FileRepository
	store *storage.LocalStore
	fs    afero.Fs
	jobs  *fakePublisher
	owner *models.User
	other *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fsys := afero.NewMemMapFs()
	store := storage.NewLocalStoreFs(fsys, "/tmp/files_manager")
	repo := repotest.NewMemoryStore().Files()
	jobs := &fakePublisher{}
	return &fixture{
		svc:   NewService(repo, store, jobs, []int{500, 250, 100}, zap.NewNop()),
		repo:  repo,
		store: store,
		fs:    fsys,
		jobs:  jobs,
		owner: &models.User{ID: primitive.NewObjectID(), Email: "owner@x.io"},
		other: &models.User{ID: primitive.NewObjectID(), Email: "other@x.io"},
	}
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestRegister_ValidationMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		in  UploadInput
		msg string
	}{
		{UploadInput{Type: models.TypeFile, Data: b64("x")}, "Missing name"},
		{UploadInput{Name: "a"}, "Missing type"},
		{UploadInput{Name: "a", Type: "video", Data: b64("x")}, "Missing type"},
		{UploadInput{Name: "a", Type: models.TypeFile}, "Missing data"},
		{UploadInput{Name: "a", Type: models.TypeImage}, "Missing data"},
		{UploadInput{Name: "a", Type: models.TypeFile, Data: "%%%"}, "Invalid data"},
		{UploadInput{Name: "a", Type: models.TypeFolder, ParentID: "nope"}, "Parent not found"},
		{UploadInput{Name: "a", Type: models.TypeFolder, ParentID: models.ParentID(primitive.NewObjectID().Hex())}, "Parent not found"},
	}
	for _, tc := range cases {
		_, err := f.svc.Register(ctx, f.owner, tc.in)
		require.Error(t, err, tc.msg)
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, tc.msg, apperr.Message(err))
	}
}

func TestRegister_Folder(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Register(context.Background(), f.owner, UploadInput{Name: "images", Type: models.TypeFolder})
	require.NoError(t, err)

	assert.False(t, rec.ID.IsZero())
	assert.Empty(t, rec.LocalPath)
	assert.Equal(t, models.RootID, rec.ParentID)
	assert.False(t, rec.IsPublic)
	assert.Empty(t, f.jobs.fileJobs)
}

func TestRegister_FileRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payload := "Hello Webstack!\n\x00\xff"

	rec, err := f.svc.Register(ctx, f.owner, UploadInput{Name: "hello.txt", Type: models.TypeFile, Data: b64(payload)})
	require.NoError(t, err)
	require.NotEmpty(t, rec.LocalPath)

	stored, err := f.repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.LocalPath, stored.LocalPath)

	exists, err := afero.Exists(f.fs, rec.LocalPath)
	require.NoError(t, err)
	assert.True(t, exists)

	content, err := f.svc.ReadContent(ctx, f.owner, rec.ID.Hex(), "")
	require.NoError(t, err)
	assert.Equal(t, []byte(payload), content.Data)
	assert.Equal(t, "text/plain; charset=utf-8", content.MIMEType)
	assert.Empty(t, f.jobs.fileJobs)
}

func TestRegister_ImageEnqueuesThumbnailJob(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Register(context.Background(), f.owner, UploadInput{Name: "a.png", Type: models.TypeImage, Data: b64("png")})
	require.NoError(t, err)

	require.Len(t, f.jobs.fileJobs, 1)
	assert.Equal(t, queue.FileJob{UserID: f.owner.ID.Hex(), FileID: rec.ID.Hex()}, f.jobs.fileJobs[0])
}

func TestRegister_EnqueueFailureIsInfrastructureError(t *testing.T) {
	f := newFixture(t)
	f.jobs.err = errors.New("broker down")

	_, err := f.svc.Register(context.Background(), f.owner, UploadInput{Name: "a.png", Type: models.TypeImage, Data: b64("png")})
	assert.ErrorIs(t, err, apperr.ErrInfrastructure)
	assert.Equal(t, "Internal error", apperr.Message(err))
}

func TestRegister_WriteFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.svc.store = storage.NewLocalStoreFs(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/data")

	_, err := f.svc.Register(context.Background(), f.owner, UploadInput{Name: "a.txt", Type: models.TypeFile, Data: b64("x")})
	assert.ErrorIs(t, err, apperr.ErrInfrastructure)

	n, err := f.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegister_ParentRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, err := f.svc.Register(ctx, f.owner, UploadInput{Name: "dir", Type: models.TypeFolder})
	require.NoError(t, err)
	file, err := f.svc.Register(ctx, f.owner, UploadInput{Name: "f.txt", Type: models.TypeFile, Data: b64("x")})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, f.owner, UploadInput{Name: "child", Type: models.TypeFile, Data: b64("x"), ParentID: models.ParentID(file.ID.Hex())})
	assert.Equal(t, "Parent is not a folder", apperr.Message(err))

	// someone else's folder does not exist for this user
	_, err = f.svc.Register(ctx, f.other, UploadInput{Name: "child", Type: models.TypeFolder, ParentID: models.ParentID(folder.ID.Hex())})
	assert.Equal(t, "Parent not found", apperr.Message(err))

	child, err := f.svc.Register(ctx, f.owner, UploadInput{Name: "child", Type: models.TypeFile, Data: b64("x"), ParentID: models.ParentID(folder.ID.Hex())})
	require.NoError(t, err)
	assert.Equal(t, models.ParentID(folder.ID.Hex()), child.ParentID)
}

func TestGet_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Register(ctx, f.owner, UploadInput{Name: "dir", Type: models.TypeFolder})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, f.owner, rec.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = f.svc.Get(ctx, f.other, rec.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.Get(ctx, f.owner, "not-an-id")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestList_PaginationPartitionsRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 47; i++ {
		_, err := f.svc.Register(ctx, f.owner, UploadInput{Name: fmt.Sprintf("f%d.txt", i), Type: models.TypeFile, Data: b64("x")})
		require.NoError(t, err)
	}
	_, err := f.svc.Register(ctx, f.other, UploadInput{Name: "theirs", Type: models.TypeFolder})
	require.NoError(t, err)

	seen := map[primitive.ObjectID]bool{}
	sizes := []int{}
	for page := 0; page < 4; page++ {
		recs, err := f.svc.List(ctx, f.owner, models.RootID, page)
		require.NoError(t, err)
		sizes = append(sizes, len(recs))
		for _, r := range recs {
			assert.Equal(t, f.owner.ID, r.UserID)
			assert.Empty(t, r.LocalPath)
			assert.False(t, seen[r.ID], "record listed twice")
			seen[r.ID] = true
		}
	}
	assert.Equal(t, []int{20, 20, 7, 0}, sizes)
	assert.Len(t, seen, 47)

	first, err := f.svc.List(ctx, f.owner, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "f46.txt", first[0].Name)
}

func TestList_HugePageIsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, f.owner, UploadInput{Name: "dir", Type: models.TypeFolder})
	require.NoError(t, err)

	for _, page := range []int{math.MaxInt64/PageSize + 1, math.MaxInt64} {
		recs, err := f.svc.List(ctx, f.owner, models.RootID, page)
		require.NoError(t, err)
		assert.NotNil(t, recs)
		assert.Empty(t, recs)
	}
}

func TestList_FiltersByParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir, err := f.svc.Register(ctx, f.owner, UploadInput{Name: "dir", Type: models.TypeFolder})
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, f.owner, UploadInput{Name: "in", Type: models.TypeFile, Data: b64("x"), ParentID: models.ParentID(dir.ID.Hex())})
	require.NoError(t, err)

	inside, err := f.svc.List(ctx, f.owner, models.ParentID(dir.ID.Hex()), 0)
	require.NoError(t, err)
	require.Len(t, inside, 1)
	assert.Equal(t, "in", inside[0].Name)

	root, err := f.svc.List(ctx, f.owner, models.RootID, 0)
	require.NoError(t, err)
	require.Len(t, root, 1)
	assert.Equal(t, "dir", root[0].Name)
}

func TestSetPublic_ToggleIsReversibleAndOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Register(ctx, f.owner, UploadInput{Name: "a.txt", Type: models.TypeFile, Data: b64("x")})
	require.NoError(t, err)

	pub, err := f.svc.SetPublic(ctx, f.owner, rec.ID.Hex(), true)
	require.NoError(t, err)
	assert.True(t, pub.IsPublic)

	priv, err := f.svc.SetPublic(ctx, f.owner, rec.ID.Hex(), false)
	require.NoError(t, err)
	assert.False(t, priv.IsPublic)

	_, err = f.svc.SetPublic(ctx, f.other, rec.ID.Hex(), true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	stored, err := f.repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPublic)
}

func TestReadContent_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Register(ctx, f.owner, UploadInput{Name: "a.txt", Type: models.TypeFile, Data: b64("secret")})
	require.NoError(t, err)

	_, err = f.svc.ReadContent(ctx, nil, rec.ID.Hex(), "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.ReadContent(ctx, f.other, rec.ID.Hex(), "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.SetPublic(ctx, f.owner, rec.ID.Hex(), true)
	require.NoError(t, err)

	content, err := f.svc.ReadContent(ctx, nil, rec.ID.Hex(), "")
	require.NoError(t, err)
	assert.Equal(t, "secret", string(content.Data))
}

func TestReadContent_Folder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir, err := f.svc.Register(ctx, f.owner, UploadInput{Name: "dir", Type: models.TypeFolder, IsPublic: true})
	require.NoError(t, err)

	_, err = f.svc.ReadContent(ctx, nil, dir.ID.Hex(), "")
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)
	assert.Equal(t, "A folder doesn't have content", apperr.Message(err))
}

func TestReadContent_Variants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Register(ctx, f.owner, UploadInput{Name: "a.png", Type: models.TypeImage, Data: b64("png")})
	require.NoError(t, err)

	// not processed yet
	_, err = f.svc.ReadContent(ctx, f.owner, rec.ID.Hex(), "500")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, f.store.Save(ctx, storage.VariantKey(rec.LocalPath, 500), []byte("thumb")))
	content, err := f.svc.ReadContent(ctx, f.owner, rec.ID.Hex(), "500")
	require.NoError(t, err)
	assert.Equal(t, "thumb", string(content.Data))
	assert.Equal(t, "image/png", content.MIMEType)

	for _, size := range []string{"42", "big", "-1"} {
		_, err = f.svc.ReadContent(ctx, f.owner, rec.ID.Hex(), size)
		assert.ErrorIs(t, err, apperr.ErrNotFound, "size %q", size)
	}
}

func TestReadContent_UnknownID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ReadContent(context.Background(), f.owner, primitive.NewObjectID().Hex(), "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
