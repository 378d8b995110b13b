package reasoning

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a scripted in-memory Service for tests and offline operation. Each
// Converse call consumes the next queued response; once the script is
// exhausted it echoes a canned final answer.
type Mock struct {
	mu       sync.Mutex
	script   []Response
	requests []Request
	err      error
}

// NewMock creates a mock with the given scripted responses.
func NewMock(script ...Response) *Mock {
	return &Mock{script: script}
}

// FailWith makes every subsequent Converse call return err.
func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of every request seen so far.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Converse implements Service.
func (m *Mock) Converse(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}

	if len(m.script) == 0 {
		last := ""
		if len(req.Messages) > 0 {
			last = req.Messages[len(req.Messages)-1].Content
		}
		return &Response{Content: fmt.Sprintf("mock response to: %s", last)}, nil
	}

	next := m.script[0]
	m.script = m.script[1:]
	return &next, nil
}
