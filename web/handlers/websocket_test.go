package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/snagasawa/tubuyaki/internal/engine"
	"github.com/snagasawa/tubuyaki/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveEvent(t *testing.T, client *MockClient) CaptureEvent {
	t.Helper()
	select {
	case data := <-client.SendChan:
		var event CaptureEvent
		require.NoError(t, json.Unmarshal(data, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for hub broadcast")
		return CaptureEvent{}
	}
}

func TestCaptureHub_BroadcastReachesAllClients(t *testing.T) {
	hub := NewCaptureHub(func(ctx context.Context, rawText string) (*engine.ProcessOutcome, error) {
		return &engine.ProcessOutcome{Record: &types.Record{ID: "rec-1", RawText: rawText}}, nil
	})
	go hub.Run()
	defer hub.Stop()

	a := &MockClient{SendChan: make(chan []byte, 8)}
	b := &MockClient{SendChan: make(chan []byte, 8)}
	hub.Register(a)
	hub.Register(b)
	time.Sleep(50 * time.Millisecond)

	hub.HandleCapture(context.Background(), "a spoken note")

	for _, client := range []*MockClient{a, b} {
		event := receiveEvent(t, client)
		assert.Equal(t, "record_created", event.Type)
	}
}

func TestCaptureHub_CreateFailureBroadcastsError(t *testing.T) {
	hub := NewCaptureHub(func(ctx context.Context, rawText string) (*engine.ProcessOutcome, error) {
		return nil, errors.New("raw text must not be empty")
	})
	go hub.Run()
	defer hub.Stop()

	client := &MockClient{SendChan: make(chan []byte, 8)}
	hub.Register(client)
	time.Sleep(50 * time.Millisecond)

	hub.HandleCapture(context.Background(), "")

	event := receiveEvent(t, client)
	assert.Equal(t, "error", event.Type)
	assert.NotEmpty(t, event.Error)
}

func TestCaptureHub_WarningIsForwarded(t *testing.T) {
	hub := NewCaptureHub(func(ctx context.Context, rawText string) (*engine.ProcessOutcome, error) {
		return &engine.ProcessOutcome{
			Record:  &types.Record{ID: "rec-1", RawText: rawText, Status: types.StatusPending},
			Warning: engine.WarningNoCredentials,
		}, nil
	})
	go hub.Run()
	defer hub.Stop()

	client := &MockClient{SendChan: make(chan []byte, 8)}
	hub.Register(client)
	time.Sleep(50 * time.Millisecond)

	hub.HandleCapture(context.Background(), "note without credentials")

	event := receiveEvent(t, client)
	assert.Equal(t, "record_created", event.Type)
	assert.Equal(t, engine.WarningNoCredentials, event.Warning)
}

func TestCaptureHub_UnregisterStopsDelivery(t *testing.T) {
	hub := NewCaptureHub(func(ctx context.Context, rawText string) (*engine.ProcessOutcome, error) {
		return &engine.ProcessOutcome{Record: &types.Record{ID: "rec-1", RawText: rawText}}, nil
	})
	go hub.Run()
	defer hub.Stop()

	client := &MockClient{SendChan: make(chan []byte, 8)}
	hub.Register(client)
	time.Sleep(50 * time.Millisecond)
	hub.Unregister(client)
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(CaptureEvent{Type: "record_created"})

	select {
	case <-client.SendChan:
		t.Fatal("unregistered client received a broadcast")
	case <-time.After(100 * time.Millisecond):
	}
}
