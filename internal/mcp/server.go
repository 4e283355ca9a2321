package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Config contains server configuration.
type Config struct {
	Contacts ContactService
	Calls    CallService
	Device   DeviceService
	Version  string
	Logger   *zap.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "calldesk",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, NewHandler(cfg.Contacts, cfg.Calls, cfg.Device), logger)

	return server
}

func registerTools(server *sdkmcp.Server, handler *Handler, logger *zap.Logger) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		tool := &sdkmcp.Tool{
			Name:        name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}
		if def.ReadOnly {
			tool.Annotations = &sdkmcp.ToolAnnotations{ReadOnlyHint: true}
		}
		server.AddTool(tool, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := handler.Handle(ctx, name, args)
			if err != nil {
				logger.Debug("tool failed", zap.String("tool", name), zap.Error(err))
				return toolError(err), nil
			}
			return toolResult(result)
		})
	}
}

func toolResult(result any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	res := &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
	// Structured content must be a JSON object.
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		res.StructuredContent = json.RawMessage(data)
	}
	return res, nil
}

// toolError reports domain failures in-band so the model can react to them.
func toolError(err error) *sdkmcp.CallToolResult {
	payload := any(map[string]string{"code": "INTERNAL", "message": err.Error()})
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		payload = apiErr
	}
	data, _ := json.Marshal(payload)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
