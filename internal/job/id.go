package job

import "github.com/google/uuid"

// NewID returns a fresh random (v4) UUID. Collisions are negligible, so scratch
// artifacts keyed by the id need no further locking.
func NewID() string {
	return uuid.NewString()
}
