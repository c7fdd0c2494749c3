package services

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/athapong/diagram-mcp/pkg/fusion"
)

// DiagramExtractor dispatches the pipeline's two prompt modes to the
// backing services: grounding OCR for coordinates, the VLM for the
// narrative description. Implements fusion.Extractor.
type DiagramExtractor struct {
	grounding *GroundingOCRClient
	vlm       *openai.Client
}

var defaultExtractor = sync.OnceValue(func() *DiagramExtractor {
	return &DiagramExtractor{
		grounding: DefaultGroundingClient(),
		vlm:       DefaultQwenClient(),
	}
})

// DefaultDiagramExtractor returns the singleton extractor wired to the
// configured service endpoints.
func DefaultDiagramExtractor() *DiagramExtractor {
	return defaultExtractor()
}

// Extract executes one prompt mode against the image.
func (e *DiagramExtractor) Extract(ctx context.Context, image []byte, mode fusion.PromptMode) (string, error) {
	switch mode {
	case fusion.ModeCoordinates:
		return e.grounding.OCR(ctx, image)
	case fusion.ModeNarrative:
		return DescribeDiagram(ctx, e.vlm, image)
	}
	return "", errors.Errorf("unknown prompt mode: %s", mode)
}
