// Package sandbox resolves and confines filesystem paths to a sandbox root.
//
// Maps to: codex-rs/core/src/sandbox/ (teacher's OS-level sandbox), repurposed
// here as pure path confinement per the guard contract in agent_guardrails.py
// and sandbox_service.py from the original backend.
package sandbox

import "fmt"

// Kind classifies a Guard failure so callers can map it to the error
// taxonomy without parsing messages.
type Kind string

const (
	// KindPathEscape means the resolved path falls outside the sandbox root.
	KindPathEscape Kind = "path_escape"
	// KindNotADirectory means a directory was required but the path is a file.
	KindNotADirectory Kind = "not_a_directory"
	// KindNotAFile means a file was required but the path is a directory.
	KindNotAFile Kind = "not_a_file"
)

// Error is a typed Guard failure.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sandbox: %s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("sandbox: %s: %s", e.Kind, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
