// Package lazy provides memoized, single-assignment deferred values.
//
// A Cell holds a computation that runs at most once, on first access.
// Cells are how the schema compiler refers to components that may not
// have been built yet: a reference is a Cell that performs the lookup
// when forced, so forward and circular references only need to be
// resolvable by the time somebody asks for them.
package lazy // import "github.com/CognitoIQ/go-xsd/internal/lazy"

import (
	"fmt"
	"sync"

	"github.com/petermattis/goid"
)

const (
	pending = iota
	forcing
	done
)

// A Cell is a value computed on demand. The zero value is not usable;
// create Cells with New, Of or Map. A Cell is safe for concurrent
// use: concurrent first access runs the computation once, and every
// caller observes its result.
type Cell[T any] struct {
	mu    sync.Mutex
	state int
	owner int64
	wait  chan struct{}
	fn    func() (T, error)
	val   T
	err   error
	label string
}

// New returns a Cell that computes its value with fn. The label is
// used in cycle diagnostics and may be empty.
func New[T any](label string, fn func() (T, error)) *Cell[T] {
	return &Cell[T]{fn: fn, label: label}
}

// Of returns a Cell that already holds v.
func Of[T any](v T) *Cell[T] {
	return &Cell[T]{state: done, val: v}
}

// Map returns a Cell whose value is f applied to the value of c. Neither
// c nor f are evaluated until the returned Cell is forced.
func Map[T, U any](c *Cell[T], f func(T) (U, error)) *Cell[U] {
	return New(c.label, func() (U, error) {
		v, err := c.Get()
		if err != nil {
			var zero U
			return zero, err
		}
		return f(v)
	})
}

// Label returns the label the Cell was created with.
func (c *Cell[T]) Label() string { return c.label }

// Forced reports whether the Cell's value has been computed.
func (c *Cell[T]) Forced() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == done
}

// Get returns the value of the Cell, computing it if necessary. If the
// computation requires the value of the Cell itself, Get returns a
// *CycleError instead of recursing forever or deadlocking.
func (c *Cell[T]) Get() (T, error) {
	me := goid.Get()
	c.mu.Lock()
	switch c.state {
	case done:
		c.mu.Unlock()
		return c.val, c.err
	case forcing:
		owner, wait := c.owner, c.wait
		c.mu.Unlock()
		if owner == me {
			var zero T
			return zero, &CycleError{Label: c.label}
		}
		if err := waitFor(me, owner, wait); err != nil {
			var zero T
			err.Label = c.label
			return zero, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.val, c.err
	}
	c.state = forcing
	c.owner = me
	c.wait = make(chan struct{})
	c.mu.Unlock()

	val, err := c.run()

	c.mu.Lock()
	c.val, c.err = val, err
	c.state = done
	c.fn = nil
	close(c.wait)
	c.mu.Unlock()
	return val, err
}

func (c *Cell[T]) run() (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("lazy: panic computing %s: %v", c.label, r)
			}
		}
	}()
	return c.fn()
}

// Value is like Get, but panics if the computation failed. It is meant
// for accessors on values whose Cells are known to have been forced
// successfully.
func (c *Cell[T]) Value() T {
	v, err := c.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// A CycleError is returned when forcing a Cell requires its own value.
type CycleError struct {
	Label string
}

func (e *CycleError) Error() string {
	if e.Label == "" {
		return "lazy: value depends on itself"
	}
	return fmt.Sprintf("lazy: %s depends on itself", e.Label)
}

// Goroutines blocked on a Cell owned by another goroutine are recorded
// here, so that a cycle spanning several goroutines is reported instead
// of deadlocking.
var waits = struct {
	sync.Mutex
	on map[int64]int64
}{on: make(map[int64]int64)}

func waitFor(me, owner int64, wait <-chan struct{}) *CycleError {
	waits.Lock()
	for g, ok := owner, true; ok; g, ok = waits.on[g] {
		if g == me {
			waits.Unlock()
			return &CycleError{}
		}
	}
	waits.on[me] = owner
	waits.Unlock()

	<-wait

	waits.Lock()
	delete(waits.on, me)
	waits.Unlock()
	return nil
}
