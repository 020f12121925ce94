package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/routemodel/pkg/core"
	"github.com/NERVsystems/routemodel/pkg/tracing"
)

// ErrorResponse builds an MCP error result from a plain message
func ErrorResponse(message string) *mcp.CallToolResult {
	return core.NewError(core.KindInternal, core.ErrInternalError, message).ToMCPResult()
}

// errorResult converts err into an MCP error result, keeping RouteError
// codes, paths and detail intact.
func errorResult(err error) *mcp.CallToolResult {
	var re *core.RouteError
	if errors.As(err, &re) {
		return re.ToMCPResult()
	}
	return ErrorResponse(err.Error())
}

// InputParser decodes request arguments into a strongly typed struct.
// Unknown arguments are rejected.
func InputParser[T any](req mcp.CallToolRequest) (T, error) {
	var input T

	inputJSON, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return input, core.NewValidationError(core.ErrInvalidInput,
			fmt.Sprintf("invalid input format: %v", err)).WithCause(err)
	}

	dec := json.NewDecoder(bytes.NewReader(inputJSON))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		return input, core.NewValidationError(core.ErrInvalidInput,
			fmt.Sprintf("failed to parse input: %v", err)).WithCause(err)
	}

	return input, nil
}

// WithParsedInput handles request parsing, error conversion and result
// marshalling around a typed handler.
func WithParsedInput[T any](
	handlerName string,
	handler func(ctx context.Context, input T, logger *slog.Logger) (any, error),
) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := slog.Default().With("tool", handlerName)

		input, err := InputParser[T](req)
		if err != nil {
			logger.Error("failed to parse input", "error", err)
			return errorResult(err), nil
		}

		result, err := handler(ctx, input, logger)
		if err != nil {
			logger.Error("handler error", "error", err)
			tracing.RecordError(ctx, err)
			tracing.SetAttributes(ctx, tracing.ErrorAttributes(core.KindOf(err).String(), err)...)
			return errorResult(err), nil
		}

		resultBytes, err := json.Marshal(result)
		if err != nil {
			logger.Error("failed to marshal result", "error", err)
			return ErrorResponse("Failed to generate result"), nil
		}

		return mcp.NewToolResultText(string(resultBytes)), nil
	}
}
