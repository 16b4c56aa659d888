package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fathima-sithara/files-service/internal/apperr"
	"github.com/fathima-sithara/files-service/internal/queue"
	"github.com/fathima-sithara/files-service/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakePublisher struct {
	userJobs []queue.UserJob
	err      error
}

func (p *fakePublisher) EnqueueFile(context.Context, queue.FileJob) error { return p.err }
func (p *fakePublisher) EnqueueUser(_ context.Context, job queue.UserJob) error {
	if p.err != nil {
		return p.err
	}
	p.userJobs = append(p.userJobs, job)
	return nil
}

func TestRegister(t *testing.T) {
	repo := repotest.NewMemoryStore().Users()
	pub := &fakePublisher{}
	svc := NewService(repo, pub, bcrypt.MinCost, zap.NewNop())

	u, err := svc.Register(context.Background(), "bob@dylan.com", "toto1234!")
	require.NoError(t, err)
	assert.False(t, u.ID.IsZero())
	assert.True(t, strings.HasPrefix(u.Password, "$2"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("toto1234!")))

	require.Len(t, pub.userJobs, 1)
	assert.Equal(t, u.ID.Hex(), pub.userJobs[0].UserID)

	_, err = svc.Register(context.Background(), "bob@dylan.com", "other")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Already exist", apperr.Message(err))
}

func TestRegister_Validation(t *testing.T) {
	svc := NewService(repotest.NewMemoryStore().Users(), &fakePublisher{}, bcrypt.MinCost, zap.NewNop())

	_, err := svc.Register(context.Background(), "", "pw")
	assert.Equal(t, "Missing email", apperr.Message(err))

	_, err = svc.Register(context.Background(), "a@b.c", "")
	assert.Equal(t, "Missing password", apperr.Message(err))
}

func TestRegister_QueueFailureSurfaces(t *testing.T) {
	svc := NewService(repotest.NewMemoryStore().Users(), &fakePublisher{err: errors.New("kafka down")}, bcrypt.MinCost, zap.NewNop())

	_, err := svc.Register(context.Background(), "a@b.c", "pw")
	assert.ErrorIs(t, err, apperr.ErrInfrastructure)
}
