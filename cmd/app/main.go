package main

import (
	"os"
	"os/signal"
	"syscall"

	"SalonAssistant/internal/config"
	"SalonAssistant/pkg/log"

	"github.com/joho/godotenv"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		if os.Getenv("APP_ENV") == "production" {
			logger.Fatalf("Error loading .env file: %v", err)
		}
		logger.Warnf("No .env file loaded: %v", err)
	}

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()

	dialogueConfig, err := config.LoadDialogueConfig()
	if err != nil {
		logger.Fatalf("Invalid dialogue configuration: %v", err)
	}

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithDialogueConfig(dialogueConfig),
		config.WithDatabase(),
		config.WithSessionStore(),
		config.WithLLM(),
		config.WithNotifier(),
		config.WithArchive(),
		config.WithMiddleware(),
		config.WithUtils(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")
	server.Close()
}
