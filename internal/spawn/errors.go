package spawn

import "fmt"

// ErrorKind enumerates spec.md §7's Spawning error taxonomy.
type ErrorKind string

const (
	ErrTemplateNotFound  ErrorKind = "template_not_found"
	ErrInsufficientRole  ErrorKind = "insufficient_role"
	ErrSpawnLimitExceeded ErrorKind = "spawn_limit_exceeded"
	ErrSpawnDepthExceeded ErrorKind = "spawn_depth_exceeded"
	ErrSpawnCircular     ErrorKind = "spawn_circular"
)

// Error is a typed Spawner failure. Callers switch on Kind rather than
// string-matching Error().
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
