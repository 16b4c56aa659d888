package logger

import (
	"go.uber.org/zap"
)

// New builds the process logger. Development mode uses the console encoder
// with debug level; anything else gets the JSON production config.
func New(env string) (*zap.Logger, error) {
	if env == "development" {
		cfg := zap.NewDevelopmentConfig()
		return cfg.Build()
	}
	return zap.NewProduction()
}
