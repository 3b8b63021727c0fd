package collision

import (
	"github.com/arloliu/modkit/errs"
)

// Collision records two different names that share one hash.
type Collision struct {
	Hash     uint32
	Existing string
	Name     string
}

// Tracker is the encoder's name→hash map. Every schema, column and table
// name is tracked once; repeated names are deduplicated and different names
// with the same hash are recorded as collisions.
type Tracker struct {
	hashes     map[string]uint32 // name → hash, for deduplication
	names      map[uint32]string // hash → first name, for collision detection
	order      []string          // first-seen order
	collisions []Collision
}

// NewTracker creates a new collision tracker.
func NewTracker() *Tracker {
	return &Tracker{
		hashes: make(map[string]uint32),
		names:  make(map[uint32]string),
		order:  make([]string, 0),
	}
}

// Track records name with its hash.
//
// Returns error if:
//   - The name is empty (ErrInvalidName)
//   - The name was tracked before with a different hash (ErrHashCollision);
//     this happens when a decoded schema kept a stored hash
//
// A different name with the same hash is not an error here: the collision is
// recorded and reported by Collisions, and the caller decides whether it is
// fatal.
func (t *Tracker) Track(name string, hash uint32) (collided bool, err error) {
	if name == "" {
		return false, errs.ErrInvalidName
	}

	if prev, seen := t.hashes[name]; seen {
		if prev != hash {
			return false, errs.ErrHashCollision
		}

		return false, nil
	}

	t.hashes[name] = hash
	t.order = append(t.order, name)

	if existing, exists := t.names[hash]; exists {
		t.collisions = append(t.collisions, Collision{Hash: hash, Existing: existing, Name: name})
		return true, nil
	}
	t.names[hash] = name

	return false, nil
}

// Hash returns the hash a name was tracked with.
func (t *Tracker) Hash(name string) (uint32, bool) {
	h, ok := t.hashes[name]
	return h, ok
}

// HasCollision returns true if a collision has been detected.
func (t *Tracker) HasCollision() bool {
	return len(t.collisions) > 0
}

// Collisions returns every recorded collision in detection order.
func (t *Tracker) Collisions() []Collision {
	return t.collisions
}

// Names returns the tracked names in first-seen order.
func (t *Tracker) Names() []string {
	return t.order
}

// Count returns the number of distinct tracked names.
func (t *Tracker) Count() int {
	return len(t.order)
}

// Reset clears all tracked names and collision state.
func (t *Tracker) Reset() {
	clear(t.hashes)
	clear(t.names)
	t.order = t.order[:0]
	t.collisions = t.collisions[:0]
}
