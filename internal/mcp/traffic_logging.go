package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

func trafficLoggingMiddleware(logger *zap.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if !logger.Core().Enabled(zap.DebugLevel) {
				return next(ctx, method, req)
			}

			fields := []zap.Field{
				zap.String("direction", direction),
				zap.String("method", method),
				zap.String("session_id", safeSessionID(req)),
			}
			logger.Debug("mcp traffic", append(fields,
				zap.String("stage", "request"),
				zap.String("params", formatPayload(safeParams(req))),
			)...)

			result, err := next(ctx, method, req)
			if !strings.HasPrefix(method, "notifications/") {
				logger.Debug("mcp traffic", append(fields,
					zap.String("stage", "response"),
					zap.String("result", formatPayload(result)),
					zap.Error(err),
				)...)
			}
			return result, err
		}
	}
}

func safeSessionID(req sdkmcp.Request) (id string) {
	if req == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	session := req.GetSession()
	if session == nil {
		return ""
	}
	return session.ID()
}

func safeParams(req sdkmcp.Request) (params any) {
	if req == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			params = nil
		}
	}()
	return req.GetParams()
}

func formatPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	return string(data)
}
