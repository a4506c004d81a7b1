package ai

import (
	"context"
	"sync"
)

type reply struct {
	text string
	err  error
	// block until the call context is done
	hang bool
}

// scriptedProvider returns replies in order and records prompts
type scriptedProvider struct {
	mu       sync.Mutex
	replies  []reply
	requests []Request
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(ctx context.Context, req Request) (string, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	var r reply
	if len(p.replies) > 0 {
		r = p.replies[0]
		p.replies = p.replies[1:]
	}
	p.mu.Unlock()

	if r.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return r.text, r.err
}

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}
