package main

import (
	"DebrisDetector/internal/api/detection"
	detectionService "DebrisDetector/internal/api/detection/service"
	"DebrisDetector/internal/config"
	"DebrisDetector/internal/entity"
	"DebrisDetector/pkg/detector"
	"DebrisDetector/pkg/log"
	"DebrisDetector/pkg/utils"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
)

func main() {
	file := flag.String("file", "", "image to send to the detection service")
	out := flag.String("out", "", "write the annotated image to this path")
	endpoint := flag.String("url", "", "detection service endpoint (defaults to DETECTION_SERVICE_URL)")
	timeout := flag.Duration("timeout", 0, "request timeout (defaults to DETECTION_TIMEOUT)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: loading .env: %v\n", err)
	}

	logger := log.NewLogger()
	validator := config.NewValidator()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadAppConfig(validator)
	if err != nil {
		logger.Fatal(err)
	}
	if *endpoint != "" {
		cfg.DetectionServiceURL = *endpoint
	}
	if *timeout > 0 {
		cfg.DetectionTimeout = *timeout
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatalf("Failed to read %s: %v", *file, err)
	}

	u := utils.NewWithLimits(cfg.MaxUploadSize, cfg.PreviewMaxDimension)
	if contentType := u.DetectContentType(data); !strings.HasPrefix(contentType, "image/") {
		logger.Warnf("%s does not look like an image (%s), sending it anyway", *file, contentType)
	}

	client := detector.New(detector.Config{Endpoint: cfg.DetectionServiceURL}, logger, validator)
	svc := detectionService.NewDetectionService(logger, client, u, cfg.DetectionTimeout)

	svc.SelectFile(filepath.Base(*file), data)
	if err := svc.Submit(context.Background()); err != nil {
		logger.Fatal(err)
	}
	svc.Wait()

	switch st := svc.State().(type) {
	case entity.Succeeded:
		printResult(os.Stdout, st.Result)
		if *out != "" {
			if err := os.WriteFile(*out, st.Result.AnnotatedImage, 0o644); err != nil {
				logger.Fatalf("Failed to write annotated image: %v", err)
			}
			fmt.Fprintf(os.Stdout, "Annotated image written to %s\n", *out)
		}
	case entity.Failed:
		fmt.Fprintf(os.Stderr, "%s: %s\n", st.Error.Kind, st.Error.Message)
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "unexpected state %s\n", st.Phase())
		os.Exit(1)
	}
}

func printResult(w io.Writer, result entity.DetectionResult) {
	view := detection.NewResultResponse(result)

	fmt.Fprintf(w, "Detections: %d\n", view.DetectionCount)
	if view.DetectionCount == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tLABEL\tCONFIDENCE\tTIER\tBOX")
	for i, d := range view.Detections {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t[%.0f, %.0f, %.0f, %.0f]\n",
			i+1, d.Label, d.Percent, d.Tier, d.Box[0], d.Box[1], d.Box[2], d.Box[3])
	}
	tw.Flush()
}
