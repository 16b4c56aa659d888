package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fathima-sithara/files-service/internal/bootstrap"
)

func main() {
	app, cleanup, err := bootstrap.Init(configPath())
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	sugar := app.Sugar

	w, closeReaders := app.Worker()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	sugar.Infof("Worker consuming %s and %s", app.Config.Kafka.TopicFileJobs, app.Config.Kafka.TopicUserJobs)
	if err := w.Run(ctx); err != nil {
		sugar.Errorf("worker stopped: %v", err)
	}
	sugar.Info("Shutting down worker...")

	if err := closeReaders(); err != nil {
		sugar.Errorf("Kafka reader close error: %v", err)
	}
	ctxShut, cancelShut := context.WithTimeout(context.Background(), app.Config.ShutdownTimeout)
	defer cancelShut()
	cleanup(ctxShut)
	log.Println("Worker stopped")
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.yaml"
}
