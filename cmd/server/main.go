package main

import (
	"context"
	"fmt"
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

	server, err := app.HTTPApp()
	if err != nil {
		sugar.Fatalf("failed to build server: %v", err)
	}

	go func() {
		listenAddr := fmt.Sprintf(":%d", app.Config.App.Port)
		sugar.Infof("Server listening on %s", listenAddr)
		if err := server.Listen(listenAddr); err != nil {
			sugar.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	sugar.Info("Shutting down server...")

	ctxShut, cancelShut := context.WithTimeout(context.Background(), app.Config.ShutdownTimeout)
	defer cancelShut()

	if err := server.ShutdownWithContext(ctxShut); err != nil {
		sugar.Errorf("Fiber app shutdown error: %v", err)
	}
	cleanup(ctxShut)
	log.Println("Graceful shutdown complete")
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.yaml"
}
