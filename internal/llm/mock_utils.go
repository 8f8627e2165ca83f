package llm

import (
	"context"
	"sync"
)

// MockLLMClient replays queued responses in order and records every request.
// Once the queue is drained it keeps returning Response. ErrAt fails the call with
// the given zero-based index.
type MockLLMClient struct {
	mu            sync.Mutex
	Response      Response
	ResponseQueue []Response
	Err           error
	ErrAt         map[int]error
	Requests      []Request
}

// NewMockLLMClient queues plain-text responses.
func NewMockLLMClient(texts ...string) *MockLLMClient {
	m := &MockLLMClient{}
	for _, t := range texts {
		m.ResponseQueue = append(m.ResponseQueue, Response{Text: t})
	}
	return m
}

func (m *MockLLMClient) Generate(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := len(m.Requests)
	m.Requests = append(m.Requests, req)

	if err, ok := m.ErrAt[call]; ok {
		return Response{}, err
	}
	if m.Err != nil {
		return Response{}, m.Err
	}
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}

func (m *MockLLMClient) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.Requests))
	copy(out, m.Requests)
	return out
}
