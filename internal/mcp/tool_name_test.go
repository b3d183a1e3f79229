package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestTool(server, tool string) ToolInfo {
	return ToolInfo{ServerName: server, ToolName: tool}
}

func TestValidServerID(t *testing.T) {
	assert.True(t, ValidServerID("github"))
	assert.True(t, ValidServerID("server1"))
	assert.False(t, ValidServerID(""))
	assert.False(t, ValidServerID("my_server"))
	assert.False(t, ValidServerID("_leading"))
}

func TestQualifyToolName(t *testing.T) {
	name := QualifyToolName("github", "create_issue")
	assert.Equal(t, "mcp_github_create_issue", name)
}

func TestDemangleToolName_RoundTrip(t *testing.T) {
	qualified := QualifyToolName("github", "create_issue")
	serverID, toolName, ok := DemangleToolName(qualified)
	require.True(t, ok)
	assert.Equal(t, "github", serverID)
	assert.Equal(t, "create_issue", toolName)
}

func TestDemangleToolName_ToolNameWithUnderscores(t *testing.T) {
	// The split is on the first delimiter after "mcp_", so a tool name
	// containing underscores round-trips intact.
	qualified := QualifyToolName("github", "create_issue_comment")
	serverID, toolName, ok := DemangleToolName(qualified)
	require.True(t, ok)
	assert.Equal(t, "github", serverID)
	assert.Equal(t, "create_issue_comment", toolName)
}

func TestDemangleToolName_MissingPrefix(t *testing.T) {
	_, _, ok := DemangleToolName("not_a_qualified_name")
	assert.False(t, ok)
}

func TestDemangleToolName_NoToolNameDelimiter(t *testing.T) {
	_, _, ok := DemangleToolName("mcp_github")
	assert.False(t, ok)
}

func TestQualifyTools_ShortNonDuplicatedNames(t *testing.T) {
	tools := []ToolInfo{
		createTestTool("server1", "tool1"),
		createTestTool("server1", "tool2"),
	}

	qualified := QualifyTools(tools)

	assert.Len(t, qualified, 2)
	assert.Contains(t, qualified, "mcp_server1_tool1")
	assert.Contains(t, qualified, "mcp_server1_tool2")
}

func TestQualifyTools_DuplicatedNamesSkipped(t *testing.T) {
	tools := []ToolInfo{
		createTestTool("server1", "duplicate_tool"),
		createTestTool("server1", "duplicate_tool"),
	}

	qualified := QualifyTools(tools)

	// Only the first tool should remain, the second is skipped
	assert.Len(t, qualified, 1)
	assert.Contains(t, qualified, "mcp_server1_duplicate_tool")
}

func TestQualifyTools_DropsInvalidServerID(t *testing.T) {
	tools := []ToolInfo{
		createTestTool("my_server", "tool1"),
		createTestTool("server1", "tool2"),
	}

	qualified := QualifyTools(tools)

	assert.Len(t, qualified, 1)
	assert.Contains(t, qualified, "mcp_server1_tool2")
	assert.NotContains(t, qualified, "mcp_my_server_tool1")
}

func TestToolFilter_AllowsByDefault(t *testing.T) {
	filter := ToolFilter{}
	assert.True(t, filter.Allows("any"))
}

func TestToolFilter_AppliesEnabledList(t *testing.T) {
	filter := ToolFilter{
		Enabled:  map[string]bool{"allowed": true},
		Disabled: map[string]bool{},
	}

	assert.True(t, filter.Allows("allowed"))
	assert.False(t, filter.Allows("denied"))
}

func TestToolFilter_AppliesDisabledList(t *testing.T) {
	filter := ToolFilter{
		Enabled:  nil,
		Disabled: map[string]bool{"blocked": true},
	}

	assert.False(t, filter.Allows("blocked"))
	assert.True(t, filter.Allows("open"))
}

func TestToolFilter_AppliesEnabledThenDisabled(t *testing.T) {
	filter := ToolFilter{
		Enabled:  map[string]bool{"keep": true, "remove": true},
		Disabled: map[string]bool{"remove": true},
	}

	assert.True(t, filter.Allows("keep"))
	assert.False(t, filter.Allows("remove"))
	assert.False(t, filter.Allows("unknown"))
}

func TestFilterTools_AppliesPerServerFilters(t *testing.T) {
	server1Tools := []ToolInfo{
		createTestTool("server1", "tool_a"),
		createTestTool("server1", "tool_b"),
	}
	server2Tools := []ToolInfo{
		createTestTool("server2", "tool_a"),
	}

	server1Filter := ToolFilter{
		Enabled:  map[string]bool{"tool_a": true, "tool_b": true},
		Disabled: map[string]bool{"tool_b": true},
	}
	server2Filter := ToolFilter{
		Enabled:  nil,
		Disabled: map[string]bool{"tool_a": true},
	}

	filtered1 := FilterTools(server1Tools, server1Filter)
	filtered2 := FilterTools(server2Tools, server2Filter)
	filtered := append(filtered1, filtered2...)

	require.Len(t, filtered, 1)
	assert.Equal(t, "server1", filtered[0].ServerName)
	assert.Equal(t, "tool_a", filtered[0].ToolName)
}

func TestNewToolFilter_FromConfig(t *testing.T) {
	filter := NewToolFilter([]string{"tool_a", "tool_b"}, []string{"tool_b"})
	assert.True(t, filter.Allows("tool_a"))
	assert.False(t, filter.Allows("tool_b"))
	assert.False(t, filter.Allows("tool_c"))
}

func TestNewToolFilter_EmptyConfig(t *testing.T) {
	filter := NewToolFilter(nil, nil)
	assert.True(t, filter.Allows("anything"))
}
