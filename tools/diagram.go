package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/athapong/diagram-mcp/pkg/bpmn"
	"github.com/athapong/diagram-mcp/pkg/fusion"
	"github.com/athapong/diagram-mcp/services"
	"github.com/athapong/diagram-mcp/util"
)

const defaultExtractionTimeout = 180 * time.Second

func RegisterDiagramTool(s *server.MCPServer) {
	extractTool := mcp.NewTool("diagram_extract",
		mcp.WithDescription("Extracts the structure of a process diagram from an image by fusing grounding OCR (coordinates) with a vision-model description (labels and relations). Returns elements, connections, and per-element confidence as JSON."),
		mcp.WithString("image_path",
			mcp.Required(),
			mcp.Description("Path to the diagram image (PNG/JPEG)"),
		),
		mcp.WithNumber("timeout_seconds",
			mcp.Description("Per-request deadline for the OCR services (default 180)"),
		),
	)

	exportTool := mcp.NewTool("diagram_export_bpmn",
		mcp.WithDescription("Extracts a process diagram from an image and serializes the result as BPMN 2.0 XML."),
		mcp.WithString("image_path",
			mcp.Required(),
			mcp.Description("Path to the diagram image (PNG/JPEG)"),
		),
	)

	s.AddTool(extractTool, util.ErrorGuard(diagramExtractHandler))
	s.AddTool(exportTool, util.ErrorGuard(diagramExportHandler))
}

func diagramExtractHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := runExtraction(ctx, request.Params.Arguments)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %s", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func diagramExportHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := runExtraction(ctx, request.Params.Arguments)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	xml, err := bpmn.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to serialize BPMN: %s", err)), nil
	}
	return mcp.NewToolResultText(string(xml)), nil
}

func runExtraction(ctx context.Context, arguments map[string]interface{}) (*fusion.ExtractionResult, error) {
	imagePath, ok := arguments["image_path"].(string)
	if !ok || imagePath == "" {
		return nil, fmt.Errorf("image_path must be a non-empty string")
	}

	timeout := defaultExtractionTimeout
	if secs, ok := arguments["timeout_seconds"].(float64); ok && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", imagePath, err)
	}

	pipeline := fusion.NewPipeline(
		services.DefaultDiagramExtractor(),
		fusion.WithTimeout(timeout),
	)
	return pipeline.Run(ctx, imagePath, image)
}
