package main

import (
	"DebrisDetector/internal/config"
	"DebrisDetector/pkg/log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.NewLogger().Warnf("Error loading .env file: %v", err)
	}

	logger := log.NewLogger()
	validator := config.NewValidator()

	appConfig, err := config.LoadAppConfig(validator)
	if err != nil {
		logger.Fatal(err)
	}

	fiberApp := config.NewFiber(logger, appConfig)

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithAppConfig(appConfig),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithUtils(),
		config.WithMiddleware(),
		config.WithDetector(nil),
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

	logger.Infof("Client started, detection service at %s", appConfig.DetectionServiceURL)

	<-sigChan
	logger.Info("Shutting down client...")

	if err := server.Shutdown(10 * time.Second); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
