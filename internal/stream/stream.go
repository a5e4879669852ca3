package stream

import (
	"context"
	"io"
	"sync"
)

// Completion is a one-shot signal carrying the terminal status of a byte
// stream: nil for clean end-of-data, or the first error the stream produced,
// whichever happens first. It resolves exactly once.
type Completion struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewCompletion returns an unresolved Completion.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Resolve records the terminal status. The first call wins; later calls are
// ignored.
func (c *Completion) Resolve(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Done returns a channel that is closed once the Completion has resolved.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Err returns the terminal status. Only valid after Done is closed; before
// resolution it returns nil.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Wait blocks until the Completion resolves or ctx expires. Expiry returns
// the ctx error and leaves the Completion untouched, so a later Wait still
// observes the stream's own outcome.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes fn in a new goroutine and resolves the returned Completion
// with its result. The Completion exists before fn starts producing, so a
// producer that finishes immediately cannot go unobserved.
func Run(fn func() error) *Completion {
	c := NewCompletion()
	go func() {
		c.Resolve(fn())
	}()
	return c
}

// Copy drains src into dst chunk by chunk, preserving arrival order, and
// resolves once with the terminal status: nil on EOF, the failing read or
// write error otherwise. No chunk is forwarded after resolution.
func Copy(dst io.Writer, src io.Reader) *Completion {
	return Run(func() error {
		buf := make([]byte, 32*1024)
		for {
			n, err := src.Read(buf)
			if n > 0 {
				if _, werr := dst.Write(buf[:n]); werr != nil {
					return werr
				}
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
		}
	})
}
