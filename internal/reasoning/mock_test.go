package reasoning

import (
	"context"
	"errors"
	"testing"
)

func TestMockConsumesScriptInOrder(t *testing.T) {
	mock := NewMock(
		Response{Content: "first"},
		Response{ToolCalls: []ToolCall{{ID: "c1", Name: "task.create"}}},
	)

	resp, err := mock.Converse(context.Background(), Request{})
	if err != nil {
		t.Fatalf("converse failed: %v", err)
	}
	if resp.Content != "first" {
		t.Errorf("expected first scripted response, got %q", resp.Content)
	}

	resp, err = mock.Converse(context.Background(), Request{})
	if err != nil {
		t.Fatalf("converse failed: %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "task.create" {
		t.Errorf("expected scripted tool call, got %+v", resp.ToolCalls)
	}
}

func TestMockEchoesAfterScriptExhausted(t *testing.T) {
	mock := NewMock()

	resp, err := mock.Converse(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "create a task"}},
	})
	if err != nil {
		t.Fatalf("converse failed: %v", err)
	}
	if resp.Content != "mock response to: create a task" {
		t.Errorf("unexpected echo: %q", resp.Content)
	}
}

func TestMockRecordsRequests(t *testing.T) {
	mock := NewMock()

	mock.Converse(context.Background(), Request{Model: "a"})
	mock.Converse(context.Background(), Request{Model: "b"})

	reqs := mock.Requests()
	if len(reqs) != 2 || reqs[0].Model != "a" || reqs[1].Model != "b" {
		t.Errorf("unexpected request log: %+v", reqs)
	}
}

func TestMockFailWith(t *testing.T) {
	mock := NewMock(Response{Content: "never seen"})
	want := errors.New("backend down")
	mock.FailWith(want)

	if _, err := mock.Converse(context.Background(), Request{}); !errors.Is(err, want) {
		t.Errorf("expected injected error, got %v", err)
	}
}

func TestMockHonorsCancelledContext(t *testing.T) {
	mock := NewMock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := mock.Converse(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context error, got %v", err)
	}
}
