package util

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestErrorGuard_RecoversPanic(t *testing.T) {
	guarded := ErrorGuard(func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		panic("handler blew up")
	})

	result, err := guarded(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("panic must surface as a tool error, got %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected error result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	if !strings.Contains(text.Text, "handler blew up") {
		t.Errorf("error text %q missing panic message", text.Text)
	}
}

func TestErrorGuard_PassesThrough(t *testing.T) {
	guarded := ErrorGuard(func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	})

	result, err := guarded(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Error("pass-through result must not be an error")
	}
}
