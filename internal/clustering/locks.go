package clustering

import (
	"sync"

	"github.com/google/uuid"
)

// DiscussionLocks serializes cluster-mutating work per discussion while
// leaving different discussions fully parallel. Embedding happens before
// the lock is taken; only store mutation runs inside it.
type DiscussionLocks struct {
	locks sync.Map // uuid.UUID -> *sync.Mutex
}

func NewDiscussionLocks() *DiscussionLocks {
	return &DiscussionLocks{}
}

// Lock acquires the mutex for the discussion and returns its unlock func.
func (d *DiscussionLocks) Lock(discussionId uuid.UUID) func() {
	v, _ := d.locks.LoadOrStore(discussionId, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
