// Worker executable for codex-temporal-go
//
// This starts a Temporal worker that executes workflows and activities.
package main

import (
	"log"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/agentcore/orchestrator/internal/activities"
	"github.com/agentcore/orchestrator/internal/eventlog"
	"github.com/agentcore/orchestrator/internal/llm"
	"github.com/agentcore/orchestrator/internal/mcp"
	"github.com/agentcore/orchestrator/internal/spawn"
	"github.com/agentcore/orchestrator/internal/tools"
	"github.com/agentcore/orchestrator/internal/tools/handlers"
	"github.com/agentcore/orchestrator/internal/workflow"
)

const (
	TaskQueue = "codex-temporal"
)

func main() {
	// Check for OpenAI API key
	if os.Getenv("OPENAI_API_KEY") == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	// Create Temporal client
	c, err := client.Dial(client.Options{
		HostPort: client.DefaultHostPort, // localhost:7233
	})
	if err != nil {
		log.Fatalf("Failed to create Temporal client: %v", err)
	}
	defer c.Close()

	// Create worker
	w := worker.New(c, TaskQueue, worker.Options{})

	// Register workflows
	w.RegisterWorkflow(workflow.AgenticWorkflow)
	w.RegisterWorkflow(workflow.AgenticWorkflowContinued)
	w.RegisterWorkflow(workflow.HarnessWorkflow)
	w.RegisterWorkflow(workflow.HarnessWorkflowContinued)

	// Create tool registry with handlers
	// Maps to: codex-rs/core/src/tools/registry.rs ToolRegistry setup
	mcpStore := mcp.NewMcpStore()
	toolRegistry := tools.NewToolRegistry()
	toolRegistry.Register(handlers.NewShellTool())
	toolRegistry.Register(handlers.NewReadFileTool())
	toolRegistry.Register(handlers.NewWriteFileTool())
	toolRegistry.Register(handlers.NewListDirTool())
	toolRegistry.Register(handlers.NewGrepFilesTool())
	toolRegistry.Register(handlers.NewApplyPatchTool())
	toolRegistry.Register(handlers.NewMCPHandler(mcpStore))
	toolRegistry.Register(handlers.NewRunPythonTool())
	toolRegistry.Register(handlers.NewWebSearchTool())
	toolRegistry.Register(handlers.NewRagQueryTool(mcpStore))
	toolRegistry.Register(handlers.NewThinkTool())
	toolRegistry.Register(handlers.NewPlanTaskTool())

	log.Printf("Registered %d tools", toolRegistry.ToolCount())

	// Create LLM client
	llmClient := llm.NewOpenAIClient()

	// Register activities
	llmActivities := activities.NewLLMActivities(llmClient)
	w.RegisterActivity(llmActivities.ExecuteLLMCall)
	w.RegisterActivity(llmActivities.ExecuteCompact)
	w.RegisterActivity(llmActivities.GenerateSuggestions)

	toolActivities := activities.NewToolActivities(toolRegistry)
	w.RegisterActivity(toolActivities.ExecuteTool)

	mcpActivities := activities.NewMcpActivities(mcpStore)
	w.RegisterActivity(mcpActivities.InitializeMcpServers)

	// Wire the §4.G Spawner: in-memory Template/Instance stores by default,
	// one standing builtin template per harness agent role so the existing
	// role-keyed spawn_agent tool runs through the same governance path as a
	// template-keyed spawn. Swap in storage.Pool-backed repos here for a
	// multi-worker deployment against Postgres.
	templateStore := spawn.NewInMemoryTemplateStore()
	spawn.SeedBuiltinTemplates(templateStore)
	instanceStore := spawn.NewInMemoryInstanceStore()
	eventLog := eventlog.NewLog(eventlog.NewInMemoryStore(), nil)

	spawner := spawn.NewSpawner(templateStore, instanceStore, eventLog)
	spawner.Visible = templateStore.Visible

	spawnActivities := activities.NewSpawnActivities(spawner)
	w.RegisterActivity(spawnActivities.SpawnAgent)

	instructionActivities := activities.NewInstructionActivities()
	w.RegisterActivity(instructionActivities.LoadWorkerInstructions)
	w.RegisterActivity(instructionActivities.LoadExecPolicy)
	w.RegisterActivity(instructionActivities.LoadPersonalInstructions)

	// Start worker
	log.Printf("Starting worker on task queue: %s", TaskQueue)
	log.Printf("Temporal server: %s", client.DefaultHostPort)

	err = w.Run(worker.InterruptCh())
	if err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Println("Worker stopped")
}
