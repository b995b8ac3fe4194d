package pool

import (
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

const token int64 = 1

var (
	ErrClosedPool    = errors.New("pool is closed")
	ErrNewFuncNil    = errors.New("newFunc for pool is nil, can not create connection")
	ErrPoolExhausted = errors.New("pool has reached its maximum capacity. Need to increase the maxCap for pool")
)

var _ ConnPool[any] = (*Pool[any])(nil)

type ConnPool[T any] interface {
	Get() (T, bool, error)
	Pop() (T, bool)
	Put(v T)
	Discard(v T)
	Fill(n int) error
	Destroy()
	Len() int
	Size() int
}

// Pool is a bounded pool of reusable items.
// Getting an item never blocks: when all slots are taken ErrPoolExhausted is returned.
type Pool[T any] struct {
	// newItem creates a new item if maxCap is not reached.
	newItem func() (T, error)
	// closeItem is a function for graceful closed items.
	closeItem func(T)
	// check reports whether a pooled item is still usable, may be nil.
	check func(T) bool

	// sema controls a max capacity of pool
	sema *semaphore.Weighted

	// mu guards closed against sends into a closed store.
	mu     sync.RWMutex
	closed bool
	// store is a chan with idle items.
	store chan T

	// size is the number of items alive, idle and borrowed.
	size   atomic.Int64
	maxCap int32
}

// New create a pool with capacity.
// checkFunc is optional and is run on every reused item before handing it out.
func New[T any](maxCap int32, newFunc func() (T, error), closeFunc func(T), checkFunc func(T) bool) *Pool[T] {
	if maxCap <= 0 {
		panic("invalid pool maxCap")
	}

	return &Pool[T]{
		newItem:   newFunc,
		closeItem: closeFunc,
		check:     checkFunc,
		sema:      semaphore.NewWeighted(int64(maxCap)),
		store:     make(chan T, maxCap),
		maxCap:    maxCap,
	}
}

// Len returns current idle items in pool
func (p *Pool[T]) Len() int {
	return len(p.store)
}

// Size returns the number of items created by the pool and not discarded yet.
func (p *Pool[T]) Size() int {
	return int(p.size.Load())
}

// Cap returns the maximum number of items.
func (p *Pool[T]) Cap() int {
	return int(p.maxCap)
}

// Get returns an idle item or creates one.
// fresh is true when the item was just created.
// Reused items failing the check are discarded, at most Size() of them per call.
func (p *Pool[T]) Get() (item T, fresh bool, err error) {
	attempts := p.Size()

	for attempts > 0 {
		v, ok, closed := p.pop()
		if closed {
			return item, false, ErrClosedPool
		}
		if !ok {
			break
		}
		if p.check == nil || p.check(v) {
			return v, false, nil
		}
		p.Discard(v)
		attempts--
	}

	item, err = p.create()
	if err != nil {
		return item, false, err
	}
	return item, true, nil
}

// Pop return idle item without block and without check
func (p *Pool[T]) Pop() (T, bool) {
	v, ok, _ := p.pop()
	return v, ok
}

// Put set back item into store again.
// For the closed pool it is discarded.
func (p *Pool[T]) Put(v T) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		p.Discard(v)
		return
	}
	select {
	case p.store <- v:
		p.mu.RUnlock()
	default:
		p.mu.RUnlock()
		p.Discard(v)
	}
}

// Discard closes the item and frees its slot.
func (p *Pool[T]) Discard(v T) {
	p.size.Add(-1)
	p.sema.Release(token)
	if p.closeItem != nil {
		p.closeItem(v)
	}
}

// Fill creates idle items until the pool holds at least n of them.
func (p *Pool[T]) Fill(n int) error {
	if n > int(p.maxCap) {
		n = int(p.maxCap)
	}
	for p.Size() < n {
		v, err := p.create()
		if err != nil {
			return err
		}
		p.Put(v)
	}
	return nil
}

// Destroy close all items and deactivate the pool
func (p *Pool[T]) Destroy() {
	p.mu.Lock()
	if p.closed {
		// pool already destroyed
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.store)
	p.mu.Unlock()

	for v := range p.store {
		p.Discard(v)
	}
}

// IsClosed reports whether Destroy was called.
func (p *Pool[T]) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

func (p *Pool[T]) pop() (v T, ok bool, closed bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return v, false, true
	}

	select {
	case v = <-p.store:
		return v, true, false
	default:
		return v, false, false
	}
}

func (p *Pool[T]) create() (T, error) {
	var zero T

	if p.IsClosed() {
		return zero, ErrClosedPool
	}
	if p.newItem == nil {
		return zero, ErrNewFuncNil
	}
	if !p.sema.TryAcquire(token) {
		return zero, ErrPoolExhausted
	}

	v, err := p.newItem()
	if err != nil {
		p.sema.Release(token)
		return zero, err
	}
	p.size.Add(1)
	return v, nil
}
