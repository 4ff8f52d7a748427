// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/petasbytes/streamchat/internal/llm"
)

// Script describes one stream returned by Provider.StreamChat.
type Script struct {
	Events []llm.StreamEvent
	// Err is reported after Events are exhausted.
	Err error
	// OpenErr makes StreamChat fail before any stream exists.
	OpenErr error
	// Gate, when non-nil, blocks the first Next until it is closed or the
	// request context ends.
	Gate <-chan struct{}
}

// Provider replays Scripts in order, one per StreamChat call.
type Provider struct {
	ConnectErr error

	mu       sync.Mutex
	scripts  []Script
	requests []llm.Request
	connects int
}

func New(scripts ...Script) *Provider {
	return &Provider{scripts: scripts}
}

func (p *Provider) Name() string { return "scripted" }

func (p *Provider) Connect(ctx context.Context) error {
	p.mu.Lock()
	p.connects++
	p.mu.Unlock()
	return p.ConnectErr
}

func (p *Provider) StreamChat(ctx context.Context, req llm.Request) (llm.Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if len(p.scripts) == 0 {
		return nil, fmt.Errorf("llmtest: no script for request %d", len(p.requests))
	}
	s := p.scripts[0]
	p.scripts = p.scripts[1:]
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	return &stream{ctx: ctx, script: s, idx: -1}, nil
}

// Requests returns a copy of every request received so far.
func (p *Provider) Requests() []llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.Request(nil), p.requests...)
}

// Connects reports how many times Connect was called.
func (p *Provider) Connects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connects
}

type stream struct {
	ctx    context.Context
	script Script
	idx    int
	err    error
	closed bool
}

func (s *stream) Next() bool {
	if s.err != nil || s.closed {
		return false
	}
	if s.idx == -1 && s.script.Gate != nil {
		select {
		case <-s.script.Gate:
		case <-s.ctx.Done():
			s.err = s.ctx.Err()
			return false
		}
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	s.idx++
	if s.idx < len(s.script.Events) {
		return true
	}
	s.err = s.script.Err
	return false
}

func (s *stream) Current() llm.StreamEvent {
	if s.idx < 0 || s.idx >= len(s.script.Events) {
		return llm.StreamEvent{}
	}
	return s.script.Events[s.idx]
}

func (s *stream) Err() error { return s.err }

func (s *stream) Close() error {
	s.closed = true
	return nil
}
