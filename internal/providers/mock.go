package providers

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const MockClientName = "mock"

// MockReply scripts one response from the mock client.
type MockReply struct {
	JSON string // structured response body
	Err  error  // returned instead of a result when set
}

// MockClient is an LLMClient for testing. Replies are consumed from
// Queue in call order; when the queue is empty, Default is used.
// Requests records every request received for assertions.
type MockClient struct {
	Queue   []MockReply
	Default MockReply
	Latency time.Duration

	mu       sync.Mutex
	Requests []*ChatRequest
}

// NewMockClient creates a mock client with an empty queue.
func NewMockClient(replies ...MockReply) *MockClient {
	return &MockClient{Queue: replies}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat pops the next scripted reply.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if c.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Latency):
		}
	}

	c.mu.Lock()
	c.Requests = append(c.Requests, req)
	reply := c.Default
	if len(c.Queue) > 0 {
		reply = c.Queue[0]
		c.Queue = c.Queue[1:]
	}
	c.mu.Unlock()

	if reply.Err != nil {
		return nil, reply.Err
	}
	if reply.JSON == "" {
		return nil, fmt.Errorf("mock client: no reply scripted for request %d", len(c.Requests))
	}

	result := &ChatResult{
		Content:   reply.JSON,
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}
	if req.ResponseFormat != nil {
		parsed, err := parseStructuredJSON(reply.JSON)
		if err != nil {
			return nil, err
		}
		if err := validateStructuredJSON(req.ResponseFormat.JSONSchema, parsed); err != nil {
			return nil, err
		}
		result.ParsedJSON = parsed
	}
	return result, nil
}

// CallCount returns the number of requests received.
func (c *MockClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Requests)
}

// RequestAt returns the i-th recorded request.
func (c *MockClient) RequestAt(i int) *ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.Requests) {
		return nil
	}
	return c.Requests[i]
}

// PromptAt returns the user-message text of the i-th recorded request,
// convenient for asserting carry-over propagation.
func (c *MockClient) PromptAt(i int) string {
	req := c.RequestAt(i)
	if req == nil {
		return ""
	}
	for _, m := range req.Messages {
		if m.Role == "user" {
			return m.Content
		}
	}
	return ""
}
