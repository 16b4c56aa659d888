package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fathima-sithara/files-service/internal/auth"
	"github.com/fathima-sithara/files-service/internal/config"
	"github.com/fathima-sithara/files-service/internal/database"
	"github.com/fathima-sithara/files-service/internal/files"
	"github.com/fathima-sithara/files-service/internal/handlers"
	"github.com/fathima-sithara/files-service/internal/logger"
	"github.com/fathima-sithara/files-service/internal/metrics"
	"github.com/fathima-sithara/files-service/internal/queue"
	"github.com/fathima-sithara/files-service/internal/repository"
	"github.com/fathima-sithara/files-service/internal/session"
	"github.com/fathima-sithara/files-service/internal/storage"
	"github.com/fathima-sithara/files-service/internal/thumbnail"
	"github.com/fathima-sithara/files-service/internal/users"
	"github.com/fathima-sithara/files-service/internal/worker"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// AppContext holds the adapters shared by the API server and the worker.
type AppContext struct {
	Config   *config.Config
	Logger   *zap.Logger
	Sugar    *zap.SugaredLogger
	Mongo    *database.Mongo
	Redis    *redis.Client
	Sessions *session.RedisStore
	Users    *repository.MongoUserRepo
	Files    *repository.MongoFileRepo
	Store    storage.Store
	Writer   *kafka.Writer
	Producer *queue.Producer
}

type CleanupFn func(context.Context)

// Init loads configuration and connects every backing service. Connections
// are lazy, so Init succeeds while Mongo, Redis or Kafka are still down.
func Init(configPath string) (*AppContext, CleanupFn, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	zl, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, nil, err
	}
	sugar := zl.Sugar()
	app := &AppContext{Config: cfg, Logger: zl, Sugar: sugar}
	sugar.Infof("Starting files service in %s environment", cfg.App.Env)

	metrics.Register(prometheus.DefaultRegisterer)

	mdb, err := database.ConnectMongo(cfg.Mongo.URI, cfg.Mongo.Database, sugar)
	if err != nil {
		return nil, nil, err
	}
	app.Mongo = mdb
	app.Users = repository.NewMongoUserRepo(mdb.DB, cfg.Mongo.UsersCollection)
	app.Files = repository.NewMongoFileRepo(mdb.DB, cfg.Mongo.FilesCollection)
	go app.ensureIndexes()

	app.Redis = database.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, sugar)
	app.Sessions = session.NewRedisStore(app.Redis)

	app.Store, err = newStore(cfg)
	if err != nil {
		_ = mdb.Close(context.Background())
		_ = app.Redis.Close()
		return nil, nil, err
	}

	app.Writer = queue.NewWriter(cfg.Kafka.Brokers)
	app.Producer = queue.NewProducer(app.Writer, cfg.Kafka.TopicFileJobs, cfg.Kafka.TopicUserJobs, cfg.QueueWriteTimeout)

	return app, func(ctx context.Context) {
		if cerr := app.Producer.Close(); cerr != nil {
			sugar.Errorf("Kafka writer close error: %v", cerr)
		}
		if cerr := mdb.Close(ctx); cerr != nil {
			sugar.Errorf("MongoDB disconnect error: %v", cerr)
		}
		if cerr := app.Sessions.Close(); cerr != nil {
			sugar.Errorf("Redis client close error: %v", cerr)
		}
		if cerr := zl.Sync(); cerr != nil {
			log.Printf("Logger sync error: %v", cerr)
		}
	}, nil
}

func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.NewS3Store(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.Endpoint, cfg.AWS.Prefix)
	case "local":
		return storage.NewLocalStore(cfg.Storage.FolderPath), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (a *AppContext) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := a.Users.EnsureIndexes(ctx); err != nil {
		a.Sugar.Warnf("users index creation failed: %v", err)
	}
	if err := a.Files.EnsureIndexes(ctx); err != nil {
		a.Sugar.Warnf("files index creation failed: %v", err)
	}
}

// HTTPApp wires the request-path services into a Fiber application.
func (a *AppContext) HTTPApp() (*fiber.App, error) {
	cfg := a.Config
	authSvc, err := auth.NewService(a.Users, a.Sessions, cfg.SessionTTL, cfg.Security.PasswordHashCost, a.Logger)
	if err != nil {
		return nil, err
	}
	h := handlers.NewHandler(handlers.Deps{
		Auth:      authSvc,
		Users:     users.NewService(a.Users, a.Producer, cfg.Security.PasswordHashCost, a.Logger),
		Files:     files.NewService(a.Files, a.Store, a.Producer, cfg.Thumbnail.Widths, a.Logger),
		Redis:     a.Sessions,
		DB:        a.Mongo,
		UserCount: a.Users,
		FileCount: a.Files,
		Logger:    a.Logger,
	})
	limiter := handlers.NewRateLimiter(a.Redis, "connect", cfg.Security.LoginRateLimit, cfg.LoginRateWindow)
	return handlers.NewApp(handlers.ServerConfig{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BodyLimit:    cfg.App.BodyLimitMB * 1024 * 1024,
	}, h, limiter, a.Logger), nil
}

// Worker builds the job consumers. The returned func closes their readers.
func (a *AppContext) Worker() (*worker.Worker, func() error) {
	cfg := a.Config
	fileReader := queue.NewReader(cfg.Kafka.Brokers, cfg.Kafka.TopicFileJobs, cfg.Kafka.GroupID)
	userReader := queue.NewReader(cfg.Kafka.Brokers, cfg.Kafka.TopicUserJobs, cfg.Kafka.GroupID)

	fileJobs := queue.NewConsumer(fileReader, a.Writer, cfg.Kafka.TopicFileJobs, cfg.Kafka.MaxRetries, cfg.JobRetryBackoff, a.Logger)
	userJobs := queue.NewConsumer(userReader, a.Writer, cfg.Kafka.TopicUserJobs, cfg.Kafka.MaxRetries, cfg.JobRetryBackoff, a.Logger)
	proc := thumbnail.NewProcessor(a.Files, a.Users, a.Store, cfg.Thumbnail.Widths, a.Logger)

	return worker.New(fileJobs, userJobs, proc, a.Logger), func() error {
		ferr := fileJobs.Close()
		uerr := userJobs.Close()
		if ferr != nil {
			return ferr
		}
		return uerr
	}
}
