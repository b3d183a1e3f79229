package mcp

import (
	"fmt"
	"log"
	"strings"
)

// Tool naming constants.
//
// Maps to: spec's name-mangling contract in 4.C, superseding the teacher's
// double-underscore SHA1-truncated scheme (codex-rs/core/src/mcp_connection_manager.rs).
const (
	// McpToolNameDelimiter separates "mcp", server id, and tool name.
	McpToolNameDelimiter = "_"

	// McpToolNamePrefix is the literal prefix for all MCP tool names,
	// including its trailing delimiter.
	McpToolNamePrefix = "mcp" + McpToolNameDelimiter
)

// ToolInfo holds metadata about a single MCP tool, including the original
// server and tool names needed for dispatch.
//
// Maps to: codex-rs/core/src/mcp_connection_manager.rs ToolInfo
type ToolInfo struct {
	ServerName string
	ToolName   string
	// Tool holds the raw MCP tool definition (schema, description, annotations).
	Tool interface{}
}

// ValidServerID reports whether a server id is acceptable for name
// mangling: it must not contain the delimiter, since the demangling split
// is on the first delimiter after the "mcp_" prefix and an id containing
// one would make that split ambiguous.
func ValidServerID(serverID string) bool {
	return serverID != "" && !strings.Contains(serverID, McpToolNameDelimiter)
}

// QualifyToolName creates the qualified name external callers see for tool T
// served by server S: "mcp_<S>_<T>".
func QualifyToolName(serverID, toolName string) string {
	return McpToolNamePrefix + serverID + McpToolNameDelimiter + toolName
}

// DemangleToolName splits a qualified name back into its server id and tool
// name. The split point is the first delimiter after the literal "mcp_"
// prefix — not the last, since tool names themselves may contain
// underscores.
func DemangleToolName(qualifiedName string) (serverID, toolName string, ok bool) {
	if !strings.HasPrefix(qualifiedName, McpToolNamePrefix) {
		return "", "", false
	}
	rest := qualifiedName[len(McpToolNamePrefix):]
	idx := strings.Index(rest, McpToolNameDelimiter)
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}

// QualifyTools qualifies every ToolInfo's name and returns a map keyed by
// qualified name. Inputs with a server name that fails ValidServerID are
// dropped with a warning — discovery should have rejected such servers
// before they ever reach this stage, so reaching here means a caller
// bypassed that check.
func QualifyTools(tools []ToolInfo) map[string]ToolInfo {
	qualifiedTools := make(map[string]ToolInfo, len(tools))
	for _, tool := range tools {
		if !ValidServerID(tool.ServerName) {
			log.Printf("mcp: dropping tool %s/%s: invalid server id", tool.ServerName, tool.ToolName)
			continue
		}
		qualified := QualifyToolName(tool.ServerName, tool.ToolName)
		if _, exists := qualifiedTools[qualified]; exists {
			log.Printf("mcp: skipping duplicated tool %s", qualified)
			continue
		}
		qualifiedTools[qualified] = tool
	}
	return qualifiedTools
}

// FilterTools filters a list of ToolInfo items using the given ToolFilter.
//
// Maps to: codex-rs/core/src/mcp_connection_manager.rs filter_tools
func FilterTools(tools []ToolInfo, filter ToolFilter) []ToolInfo {
	filtered := make([]ToolInfo, 0, len(tools))
	for _, tool := range tools {
		if filter.Allows(tool.ToolName) {
			filtered = append(filtered, tool)
		}
	}
	return filtered
}

// ErrInvalidServerID is returned by registration paths that validate a
// server id before it is ever used to qualify a tool name.
func ErrInvalidServerID(serverID string) error {
	return fmt.Errorf("mcp: server id %q must not be empty or contain %q", serverID, McpToolNameDelimiter)
}
