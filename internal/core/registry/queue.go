package registry

import (
	"sync"
)

type queuedJob struct {
	id   string
	run  func()
	done chan struct{}
}

// serialQueue executes jobs strictly one at a time, in submission order. The
// pump goroutine exists only while jobs are waiting.
type serialQueue struct {
	mu      sync.Mutex
	jobs    []*queuedJob
	running bool
}

func newSerialQueue() *serialQueue {
	return &serialQueue{}
}

// Do enqueues fn and blocks until it has run.
func (q *serialQueue) Do(id string, fn func()) {
	j := &queuedJob{id: id, run: fn, done: make(chan struct{})}

	q.mu.Lock()
	q.jobs = append(q.jobs, j)
	start := !q.running
	if start {
		q.running = true
	}
	q.mu.Unlock()

	if start {
		go q.pump()
	}
	<-j.done
}

func (q *serialQueue) pump() {
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		j := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		j.run()
		close(j.done)
	}
}

// Size reports the number of jobs still waiting (not the one running).
func (q *serialQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
