package mcp

import (
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pcathey/trellis/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"card_store": {
		def:     storeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStore },
	},
	"card_fetch": {
		def:     fetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"card_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"card_update": {
		def:     updateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate },
	},
	"card_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"card_link": {
		def:     linkToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLink },
	},
	"card_unlink": {
		def:     unlinkToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUnlink },
	},
	"card_set_parents": {
		def:     setParentsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetParents },
	},
	"card_attach": {
		def:     attachToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAttach },
	},
	"card_detach": {
		def:     detachToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDetach },
	},
	"card_exclude_ancestor": {
		def:     excludeAncestorToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExcludeAncestor },
	},
	"card_exclude_attachment": {
		def:     excludeAttachmentToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExcludeAttachment },
	},
	"card_context": {
		def:     contextToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContext },
	},
	"card_commit": {
		def:     commitToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCommit },
	},
	"card_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"card_virtual_candidates": {
		def:     virtualCandidatesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleVirtualCandidates },
	},
	"card_virtual_set": {
		def:     virtualSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleVirtualSet },
	},
	"doc_put": {
		def:     docPutToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDocPut },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with Trellis tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(db *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"trellis",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	// Register tools (skip disabled)
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, version string) error {
	s := NewServer(db, cfg, version)
	return server.ServeStdio(s)
}
