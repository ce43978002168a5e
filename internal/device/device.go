// Package device models execution placements and the per-place work
// queues the engine synchronizes against before reclaiming memory.
package device

import (
	"fmt"
	"sync"
)

// Place identifies one execution placement (a replica's device).
type Place struct {
	Kind string
	ID   int
}

// CPUPlace returns the placement for the id-th CPU replica.
func CPUPlace(id int) Place {
	return Place{Kind: "cpu", ID: id}
}

// String implements fmt.Stringer.
func (p Place) String() string {
	return fmt.Sprintf("%s:%d", p.Kind, p.ID)
}

// Context owns the asynchronous work queue for one place. Work submitted
// through Enqueue runs on a single background goroutine in submission
// order; Wait blocks the caller until every submitted task has finished.
type Context struct {
	place Place
	tasks chan func()
	wg    sync.WaitGroup
}

func newContext(place Place) *Context {
	c := &Context{
		place: place,
		tasks: make(chan func(), 64),
	}
	go c.loop()
	return c
}

func (c *Context) loop() {
	for fn := range c.tasks {
		fn()
		c.wg.Done()
	}
}

// Place returns the placement this context serves.
func (c *Context) Place() Place { return c.place }

// Enqueue submits fn to run asynchronously on the context's worker.
func (c *Context) Enqueue(fn func()) {
	c.wg.Add(1)
	c.tasks <- fn
}

// Wait blocks until all previously enqueued work has completed.
func (c *Context) Wait() {
	c.wg.Wait()
}

// Pool hands out one Context per place, creating each on first request.
type Pool struct {
	mu   sync.Mutex
	ctxs map[Place]*Context
}

// NewPool creates an empty context pool.
func NewPool() *Pool {
	return &Pool{ctxs: make(map[Place]*Context)}
}

// Get returns the context for the given place, creating it if needed.
func (p *Pool) Get(place Place) *Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.ctxs[place]; ok {
		return c
	}
	c := newContext(place)
	p.ctxs[place] = c
	return c
}
