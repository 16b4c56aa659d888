package queue

import "context"

// FileJob asks the worker to derive thumbnail variants for an image record.
type FileJob struct {
	UserID string `json:"userId"`
	FileID string `json:"fileId"`
}

// UserJob is emitted once per registered user.
type UserJob struct {
	UserID string `json:"userId"`
}

// Publisher is what the request path needs from the queue.
type Publisher interface {
	EnqueueFile(ctx context.Context, job FileJob) error
	EnqueueUser(ctx context.Context, job UserJob) error
}
