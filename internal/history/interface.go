// Package history provides conversation history management interfaces and implementations.
//
// Corresponds to: codex-rs/core/src/state/session.rs (ContextManager)
package history

import "github.com/agentcore/orchestrator/internal/models"

// ContextManager is the interface for managing conversation history.
//
// Corresponds to: codex-rs/core/src/state/session.rs ContextManager
//
// This interface supports multiple implementations:
// - InMemoryHistory: Simple in-memory storage (default)
// - ExternalHistory: External persistence (future)
type ContextManager interface {
	// Core operations

	// AddItem adds a new conversation item to history
	AddItem(item models.ConversationItem) error

	// GetForPrompt returns conversation items formatted for LLM prompt
	// Maps to: codex-rs clone_history().for_prompt()
	GetForPrompt() ([]models.ConversationItem, error)

	// EstimateTokenCount estimates the total token count of the history
	// Maps to: codex-rs clone_history().estimate_token_count()
	EstimateTokenCount() (int, error)

	// Admin operations

	// DropLastNUserTurns removes the last N user turns from history (for undo)
	// Maps to: codex-rs clone_history().drop_last_n_user_turns()
	DropLastNUserTurns(n int) error

	// DropOldestUserTurns keeps only the last keepN user turns, dropping
	// everything before them. Used as a destructive fallback when
	// compaction itself fails. Returns the number of items dropped.
	DropOldestUserTurns(keepN int) (int, error)

	// ReplaceAll discards the current history and replaces it with items,
	// reassigning Seq. Used after compaction.
	ReplaceAll(items []models.ConversationItem) error

	// GetItemsSince returns items with Seq greater than sinceSeq, for
	// incremental long-poll delivery. compacted is true when sinceSeq no
	// longer corresponds to a live position (the history was replaced or
	// trimmed since), in which case items contains the full current history.
	GetItemsSince(sinceSeq int) (items []models.ConversationItem, compacted bool, err error)

	// GetRawItems returns raw conversation items for analysis
	// Maps to: codex-rs clone_history().raw_items()
	GetRawItems() ([]models.ConversationItem, error)

	// Query operations

	// GetTurnCount returns the number of user turns
	GetTurnCount() (int, error)
}
