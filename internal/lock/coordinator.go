package lock

import "sync"

// operation is one submitted unit of work on a path. done is closed once
// the work has settled, successfully or not.
type operation struct {
	done chan struct{}
}

// Coordinator serializes operations per repository path.
//
// Operations on the same path run one at a time in submission order.
// Operations on different paths never wait for each other.
type Coordinator struct {
	mu    sync.Mutex
	tails map[string]*operation
}

// NewCoordinator creates a coordinator with no locked paths.
func NewCoordinator() *Coordinator {
	return &Coordinator{tails: make(map[string]*operation)}
}

// Run executes op once every operation previously submitted for path has
// settled. The result and error of op are returned unchanged.
//
// The path is released when op returns, fails, or panics. Failures of earlier
// operations are never seen by later ones. Waiting cannot be cancelled: once
// submitted, op always runs when its turn comes.
func Run[T any](c *Coordinator, path string, op func() (T, error)) (T, error) {
	prev, self := c.enqueue(path)
	defer c.release(path, self)

	if prev != nil {
		<-prev.done
	}
	return op()
}

// Do is Run for operations without a result.
func (c *Coordinator) Do(path string, fn func() error) error {
	_, err := Run(c, path, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Pending reports whether an operation is running or queued for path.
func (c *Coordinator) Pending(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tails[path]
	return ok
}

// Len returns the number of paths with running or queued operations.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tails)
}

// enqueue installs a new tail for path and returns the previous one.
// Taking the tail under the mutex fixes the FIFO position of the caller.
func (c *Coordinator) enqueue(path string) (prev, self *operation) {
	self = &operation{done: make(chan struct{})}

	c.mu.Lock()
	prev = c.tails[path]
	c.tails[path] = self
	c.mu.Unlock()

	return prev, self
}

// release marks self as settled and drops the map entry unless a newer
// operation has already replaced it.
func (c *Coordinator) release(path string, self *operation) {
	c.mu.Lock()
	if c.tails[path] == self {
		delete(c.tails, path)
	}
	c.mu.Unlock()

	close(self.done)
}
