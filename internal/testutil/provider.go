package testutil

import (
	"context"
	"iter"
	"sync"
)

// FakeProvider is a scripted ports.Provider that records its calls.
type FakeProvider struct {
	// Description is returned by Complete unless CompleteErr is set.
	Description string
	CompleteErr error

	// Fragments are yielded by Stream. When StreamErr is set it is yielded
	// after the first FailAfter fragments.
	Fragments []string
	StreamErr error
	FailAfter int

	// Gate, when set, is received from before each fragment.
	Gate chan struct{}

	mu            sync.Mutex
	prompts       []string
	completeCalls int
	streamCalls   int
	yielded       int
}

func (f *FakeProvider) Name() string { return "fake" }

func (f *FakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.completeCalls++
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.CompleteErr != nil {
		return "", f.CompleteErr
	}
	return f.Description, nil
}

func (f *FakeProvider) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	f.mu.Lock()
	f.streamCalls++
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	return func(yield func(string, error) bool) {
		for i, frag := range f.Fragments {
			if f.StreamErr != nil && i == f.FailAfter {
				yield("", f.StreamErr)
				return
			}
			if f.Gate != nil {
				select {
				case <-f.Gate:
				case <-ctx.Done():
					yield("", ctx.Err())
					return
				}
			}
			f.mu.Lock()
			f.yielded++
			f.mu.Unlock()
			if !yield(frag, nil) {
				return
			}
		}
		if f.StreamErr != nil && f.FailAfter >= len(f.Fragments) {
			yield("", f.StreamErr)
		}
	}
}

// Calls returns how many times Complete and Stream were invoked.
func (f *FakeProvider) Calls() (complete, stream int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completeCalls, f.streamCalls
}

// Yielded returns how many fragments have been handed to the consumer.
func (f *FakeProvider) Yielded() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.yielded
}

// Prompts returns the prompts received, in call order.
func (f *FakeProvider) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}
