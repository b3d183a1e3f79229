// Package session implements the Session Store (§4.E): a process-local
// map from principal_id to that principal's ambient agent-loop
// configuration (sandbox root, approval mode, in-flight tool handle).
//
// This is deliberately NOT Temporal-durable state — it lives outside any
// given workflow run. No workflow, activity or command in this module
// imports this package.
package session

import (
	"sync"

	"github.com/agentcore/orchestrator/internal/models"
)

// Session is one principal's ambient configuration.
type Session struct {
	PrincipalID  string
	SandboxRoot  string
	ApprovalMode models.ApprovalMode

	// ToolHandle identifies the in-flight tool call (if any) this principal
	// is currently waiting on approval/result for. Empty when idle. The
	// invariant a Session must uphold is that at most one tool_handle is
	// outstanding at a time — set_mode/set_sandbox must not be applied
	// mid-call in a way that changes semantics out from under it.
	ToolHandle string
}

// Store is the process-local principal_id → Session map. Lazily creates a
// Session with default config (§4.E) on first access.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	defaults models.ApprovalMode
}

// NewStore creates an empty store. defaultMode is used for lazily created
// sessions' ApprovalMode.
func NewStore(defaultMode models.ApprovalMode) *Store {
	if defaultMode == "" {
		defaultMode = models.ApprovalUnlessTrusted
	}
	return &Store{
		sessions: make(map[string]*Session),
		defaults: defaultMode,
	}
}

// Get returns the Session for principalID, creating it with default
// configuration if this is the first access.
func (s *Store) Get(principalID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(principalID)
}

func (s *Store) getLocked(principalID string) *Session {
	sess, ok := s.sessions[principalID]
	if !ok {
		sess = &Session{
			PrincipalID:  principalID,
			ApprovalMode: s.defaults,
		}
		s.sessions[principalID] = sess
	}
	return sess
}

// SetSandbox updates principalID's sandbox root.
func (s *Store) SetSandbox(principalID, root string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getLocked(principalID).SandboxRoot = root
}

// SetMode updates principalID's approval mode.
func (s *Store) SetMode(principalID string, mode models.ApprovalMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getLocked(principalID).ApprovalMode = mode
}

// BeginToolCall records that principalID is now waiting on tool call
// callID, returning false if one is already outstanding.
func (s *Store) BeginToolCall(principalID, callID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getLocked(principalID)
	if sess.ToolHandle != "" {
		return false
	}
	sess.ToolHandle = callID
	return true
}

// EndToolCall clears the outstanding tool handle, if it matches callID.
func (s *Store) EndToolCall(principalID, callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getLocked(principalID)
	if sess.ToolHandle == callID {
		sess.ToolHandle = ""
	}
}

// Snapshot returns a copy of principalID's current Session state, for
// read-only callers.
func (s *Store) Snapshot(principalID string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.getLocked(principalID)
}
