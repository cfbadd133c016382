package main

import (
	"DebrisDetector/internal/api/detection"
	"DebrisDetector/internal/entity"
	"DebrisDetector/pkg/log"
	websocketPkg "DebrisDetector/pkg/websocket"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	url := flag.String("url", "", "state stream url (defaults to DETECTION_STATE_URL or "+websocketPkg.DefaultStateURL+")")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: loading .env: %v\n", err)
	}

	logger := log.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream := websocketPkg.NewStateStreamClient(*url, logger)
	defer stream.CloseConnection()

	err := stream.Stream(ctx, func(state detection.StateResponse) error {
		printState(state)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal(err)
	}
}

func printState(state detection.StateResponse) {
	switch state.Phase {
	case entity.PhaseIdle:
		fmt.Println("[idle]")
	case entity.PhasePreviewing:
		fmt.Printf("[previewing] %s\n", state.FileName)
	case entity.PhaseSubmitting:
		fmt.Printf("[submitting] %s (%s)\n", state.FileName, state.SubmissionID)
	case entity.PhaseSucceeded:
		if state.Result == nil {
			fmt.Printf("[succeeded] %s\n", state.FileName)
			return
		}
		fmt.Printf("[succeeded] %s: %d detection(s)\n", state.FileName, state.Result.DetectionCount)
		for _, d := range state.Result.Detections {
			fmt.Printf("  %-20s %7s  %s\n", d.Label, d.Percent, d.Tier)
		}
	case entity.PhaseFailed:
		if state.Error == nil {
			fmt.Printf("[failed] %s\n", state.FileName)
			return
		}
		fmt.Printf("[failed] %s: %s %s\n", state.FileName, state.Error.Kind, state.Error.Message)
	default:
		fmt.Printf("[%s]\n", state.Phase)
	}
}
