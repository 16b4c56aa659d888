package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// ConnectMongo creates the client without waiting for the server. The driver
// keeps dialing in the background, so an unreachable server at startup only
// produces a warning and IsAlive reports false until it comes up.
func ConnectMongo(uri, dbName string, logger *zap.SugaredLogger) (*Mongo, error) {
	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		logger.Errorf("MongoDB client init failed: %v", err)
		return nil, err
	}

	m := &Mongo{Client: client, DB: client.Database(dbName)}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			logger.Warnf("MongoDB not reachable yet: %v", err)
			return
		}
		logger.Info("MongoDB connected successfully")
	}()
	return m, nil
}

func (m *Mongo) IsAlive(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return m.Client.Ping(ctx, readpref.Primary()) == nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
