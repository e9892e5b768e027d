// Package syncexec provides a single-goroutine execution context with
// blocking submission. It is how the facade drives an asynchronous engine
// from synchronous entry points: every wallet handle owns one Loop, submits
// each operation to it, and waits for completion before returning.
package syncexec

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("syncexec: loop closed")

type job struct {
	run  func()
	done chan struct{}
}

// Loop runs submitted work on a single dedicated goroutine, one unit at a
// time, in channel order. Work from concurrent submitters serializes; the
// relative order between submitters is whatever the channel hands out.
type Loop struct {
	jobs chan job
	quit chan struct{}
	once sync.Once
}

func New() *Loop {
	l := &Loop{
		jobs: make(chan job),
		quit: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	for {
		select {
		case j := <-l.jobs:
			j.run()
			close(j.done)
		case <-l.quit:
			return
		}
	}
}

// Do runs fn on the loop goroutine and blocks until it returns. The context
// handed to fn is never cancelled; once accepted, a unit of work runs to
// completion. Submissions racing Close may report ErrClosed instead of
// running.
func (l *Loop) Do(fn func(ctx context.Context) error) error {
	var err error
	j := job{
		run:  func() { err = fn(context.Background()) },
		done: make(chan struct{}),
	}
	select {
	case l.jobs <- j:
	case <-l.quit:
		return ErrClosed
	}
	<-j.done
	return err
}

// Close stops the loop goroutine. A unit of work already accepted finishes
// first. Close is idempotent.
func (l *Loop) Close() {
	l.once.Do(func() {
		close(l.quit)
	})
}
