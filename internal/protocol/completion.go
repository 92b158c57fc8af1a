package protocol

import (
	"context"
	"errors"
	"fmt"
)

type outcome struct {
	resp *Response
	err  error
}

// Completion is a single-use handle for the outcome of a background
// submission. The producer resolves it exactly once into a one-slot buffer, so
// an abandoned handle never blocks the producer.
type Completion struct {
	ch   chan outcome
	done chan struct{}
	out  outcome
}

func newCompletion() *Completion {
	return &Completion{
		ch:   make(chan outcome, 1),
		done: make(chan struct{}),
	}
}

// Go runs fn on a new goroutine and returns a handle for its outcome.
// A panic in fn resolves the handle with an error.
func Go(fn func() (*Response, error)) *Completion {
	c := newCompletion()
	go func() {
		var o outcome
		defer func() {
			if r := recover(); r != nil {
				o = outcome{err: fmt.Errorf("submission panicked: %v", r)}
			}
			c.ch <- o
		}()
		o.resp, o.err = fn()
		if o.resp == nil && o.err == nil {
			o.err = errors.New("transport returned neither response nor error")
		}
	}()
	return c
}

// Resolved returns a handle that is already resolved.
func Resolved(resp *Response, err error) *Completion {
	c := newCompletion()
	c.ch <- outcome{resp: resp, err: err}
	return c
}

// Wait blocks until the outcome is available or ctx is done. Giving up on ctx
// does not cancel the submission. Once resolved, every call returns the same
// outcome.
func (c *Completion) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-c.done:
		return c.out.resp, c.out.err
	default:
	}

	select {
	case o := <-c.ch:
		c.out = o
		close(c.done)
		return o.resp, o.err
	case <-c.done:
		return c.out.resp, c.out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
