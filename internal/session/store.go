package session

import (
	"context"
)

// Store tracks which card indices each session has already drawn.
// Implementations must be safe for concurrent use, and the seen-set
// update in MarkSeen must be atomic per call so concurrent draws for
// the same session cannot lose indices.
type Store interface {
	// Seen returns the set of indices already drawn by the session.
	// Unknown or expired sessions read as an empty set, not an error.
	Seen(ctx context.Context, sessionID string) (map[int]struct{}, error)

	// MarkSeen adds indices to the session's seen-set, creating the
	// session if absent. Adding an already-seen index is a no-op.
	MarkSeen(ctx context.Context, sessionID string, indices []int) error

	// Clear forgets the session's seen-set. Clearing an unknown
	// session is not an error.
	Clear(ctx context.Context, sessionID string) error
}
