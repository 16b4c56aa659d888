package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConf struct {
	Env                 string `mapstructure:"env"`
	Port                int    `mapstructure:"port"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	ShutdownSeconds     int    `mapstructure:"shutdown_seconds"`
	BodyLimitMB         int    `mapstructure:"body_limit_mb"`
}

type MongoConf struct {
	URI             string `mapstructure:"uri"`
	Database        string `mapstructure:"database"`
	UsersCollection string `mapstructure:"users_collection"`
	FilesCollection string `mapstructure:"files_collection"`
}

type RedisConf struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConf struct {
	TTLHours int `mapstructure:"ttl_hours"`
}

type SecurityConf struct {
	PasswordHashCost       int `mapstructure:"password_hash_cost"`
	LoginRateLimit         int `mapstructure:"login_rate_limit"`
	LoginRateWindowSeconds int `mapstructure:"login_rate_window_seconds"`
}

type StorageConf struct {
	Driver     string `mapstructure:"driver"`
	FolderPath string `mapstructure:"folder_path"`
}

type AWSConf struct {
	Region   string `mapstructure:"region"`
	Bucket   string `mapstructure:"bucket"`
	Endpoint string `mapstructure:"endpoint"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaConf struct {
	Brokers             []string `mapstructure:"brokers"`
	TopicFileJobs       string   `mapstructure:"topic_file_jobs"`
	TopicUserJobs       string   `mapstructure:"topic_user_jobs"`
	GroupID             string   `mapstructure:"group_id"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds"`
	MaxRetries          int      `mapstructure:"max_retries"`
	RetryBackoffMs      int      `mapstructure:"retry_backoff_ms"`
}

type ThumbnailConf struct {
	Widths []int `mapstructure:"widths"`
}

type Config struct {
	App       AppConf       `mapstructure:"app"`
	Mongo     MongoConf     `mapstructure:"mongodb"`
	Redis     RedisConf     `mapstructure:"redis"`
	Session   SessionConf   `mapstructure:"session"`
	Security  SecurityConf  `mapstructure:"security"`
	Storage   StorageConf   `mapstructure:"storage"`
	AWS       AWSConf       `mapstructure:"aws"`
	Kafka     KafkaConf     `mapstructure:"kafka"`
	Thumbnail ThumbnailConf `mapstructure:"thumbnail"`

	// derived
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
	SessionTTL        time.Duration
	LoginRateWindow   time.Duration
	QueueWriteTimeout time.Duration
	JobRetryBackoff   time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 5000)
	v.SetDefault("app.read_timeout_seconds", 30)
	v.SetDefault("app.write_timeout_seconds", 30)
	v.SetDefault("app.shutdown_seconds", 15)
	v.SetDefault("app.body_limit_mb", 50)

	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "files_manager")
	v.SetDefault("mongodb.users_collection", "users")
	v.SetDefault("mongodb.files_collection", "files")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.ttl_hours", 24)

	v.SetDefault("security.password_hash_cost", 10)
	v.SetDefault("security.login_rate_limit", 20)
	v.SetDefault("security.login_rate_window_seconds", 60)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.folder_path", "/tmp/files_manager")

	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.bucket", "")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("aws.prefix", "")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_file_jobs", "files.thumbnail")
	v.SetDefault("kafka.topic_user_jobs", "users.welcome")
	v.SetDefault("kafka.group_id", "files-worker")
	v.SetDefault("kafka.write_timeout_seconds", 5)
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff_ms", 500)

	v.SetDefault("thumbnail.widths", []int{500, 250, 100})
}

// Load reads the YAML file at path (if it exists) and overlays environment
// variables, e.g. MONGODB_URI or STORAGE_FOLDER_PATH.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.ReadTimeout = time.Duration(cfg.App.ReadTimeoutSeconds) * time.Second
	cfg.WriteTimeout = time.Duration(cfg.App.WriteTimeoutSeconds) * time.Second
	cfg.ShutdownTimeout = time.Duration(cfg.App.ShutdownSeconds) * time.Second
	cfg.SessionTTL = time.Duration(cfg.Session.TTLHours) * time.Hour
	cfg.LoginRateWindow = time.Duration(cfg.Security.LoginRateWindowSeconds) * time.Second
	cfg.QueueWriteTimeout = time.Duration(cfg.Kafka.WriteTimeoutSeconds) * time.Second
	cfg.JobRetryBackoff = time.Duration(cfg.Kafka.RetryBackoffMs) * time.Millisecond
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Mongo.URI == "" {
		return errors.New("mongodb.uri is required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required")
	}
	switch c.Storage.Driver {
	case "local":
		if c.Storage.FolderPath == "" {
			return errors.New("storage.folder_path is required for the local driver")
		}
	case "s3":
		if c.AWS.Bucket == "" {
			return errors.New("aws.bucket is required for the s3 driver")
		}
	default:
		return errors.New("storage.driver must be local or s3")
	}
	if len(c.Thumbnail.Widths) == 0 {
		return errors.New("thumbnail.widths must not be empty")
	}
	if c.Session.TTLHours <= 0 {
		return errors.New("session.ttl_hours must be positive")
	}
	return nil
}
