package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pcathey/trellis/internal/errors"
)

// decodeInput maps a tool call's arguments onto the op's input struct via a
// JSON round trip, so the one set of json tags on the ops inputs serves both
// the CLI and the MCP surface.
func decodeInput[T any](req mcp.CallToolRequest) (T, error) {
	var in T
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return in, errors.NewInvalidRequest(fmt.Sprintf("bad arguments: %v", err))
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, errors.NewInvalidRequest(fmt.Sprintf("bad arguments: %v", err))
	}
	return in, nil
}
