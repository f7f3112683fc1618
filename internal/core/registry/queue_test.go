package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSerialQueueFIFO(t *testing.T) {
	q := newSerialQueue()

	var mu sync.Mutex
	var order []string
	record := func(id string) {
		mu.Lock()
		order = append(order, id)
		mu.Unlock()
	}

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		q.Do("first", func() {
			record("first")
			<-release
		})
	}()
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 1
	})

	go func() {
		defer wg.Done()
		q.Do("second", func() { record("second") })
	}()
	waitFor(t, func() bool { return q.Size() == 1 })

	go func() {
		defer wg.Done()
		q.Do("third", func() { record("third") })
	}()
	waitFor(t, func() bool { return q.Size() == 2 })

	close(release)
	wg.Wait()

	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, 0, q.Size())
}
