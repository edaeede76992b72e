package clustering

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDiscussionLocksSerializePerDiscussion(t *testing.T) {
	locks := NewDiscussionLocks()
	discussion := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(discussion)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestDiscussionLocksAreIndependentAcrossDiscussions(t *testing.T) {
	locks := NewDiscussionLocks()

	a := uuid.New()
	b := uuid.New()

	unlockA := locks.Lock(a)

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock(b)
		unlockB()
		close(done)
	}()

	// holding a's lock must not block b
	<-done
	unlockA()
}
