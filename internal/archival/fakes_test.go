package archival

import (
	"context"
	"sync"
)

type renderCall struct {
	kind    string
	payload any
}

type fakeRenderer struct {
	mu       sync.Mutex
	calls    []renderCall
	document []byte
	err      error
}

func (f *fakeRenderer) Render(_ context.Context, kind string, payload any) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, renderCall{kind: kind, payload: payload})
	if f.err != nil {
		return nil, f.err
	}
	return f.document, nil
}

type archiveCall struct {
	consumerToken string
	payload       any
}

type fakeArchiver struct {
	mu    sync.Mutex
	calls []archiveCall
	err   error
}

func (f *fakeArchiver) Archive(_ context.Context, consumerToken string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, archiveCall{consumerToken: consumerToken, payload: payload})
	return f.err
}
