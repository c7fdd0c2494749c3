package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/athapong/diagram-mcp/pkg/bpmn"
	"github.com/athapong/diagram-mcp/pkg/fusion"
	"github.com/athapong/diagram-mcp/services"
)

var (
	imagePath  = flag.String("image", "", "Path to the diagram image")
	outputFile = flag.String("output", "extraction_result.json", "Output file path for the extraction result")
	bpmnFile   = flag.String("bpmn-output", "", "Optional output file for BPMN 2.0 XML")
	timeout    = flag.Duration("timeout", 3*time.Minute, "Per-request deadline for the OCR services")
	logLevel   = flag.String("log-level", "info", "Logging level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	// Configure logging
	logger := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatalf("Invalid log level: %v", err)
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if *imagePath == "" {
		logger.Fatal("Image path must be specified")
	}

	image, err := os.ReadFile(*imagePath)
	if err != nil {
		logger.Fatalf("Failed to read image: %v", err)
	}

	pipeline := fusion.NewPipeline(
		services.DefaultDiagramExtractor(),
		fusion.WithTimeout(*timeout),
		fusion.WithLogger(logger),
	)

	result, err := pipeline.Run(context.Background(), *imagePath, image)
	if err != nil {
		logger.Fatalf("Extraction failed: %v", err)
	}

	logger.Infof("Extracted %d elements and %d connections (average confidence %.2f)",
		len(result.Elements), len(result.Connections), result.Metadata.AverageConfidence)

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatalf("Failed to marshal result: %v", err)
	}
	if err := os.WriteFile(*outputFile, payload, 0644); err != nil {
		logger.Fatalf("Failed to write result: %v", err)
	}
	logger.Infof("Result written to %s", *outputFile)

	if *bpmnFile != "" {
		doc, err := bpmn.Marshal(result)
		if err != nil {
			logger.Fatalf("Failed to serialize BPMN: %v", err)
		}
		if err := os.WriteFile(*bpmnFile, doc, 0644); err != nil {
			logger.Fatalf("Failed to write BPMN file: %v", err)
		}
		logger.Infof("BPMN document written to %s", *bpmnFile)
	}
}
