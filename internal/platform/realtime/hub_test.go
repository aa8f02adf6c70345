package realtime

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestHub() *Hub {
	return NewHub(zerolog.New(os.Stderr))
}

func newTestClient(topics ...string) *Client {
	return &Client{
		ID:     "test-client",
		Topics: topics,
		Send:   make(chan []byte, 8),
	}
}

func TestHub_RegisterBroadcast(t *testing.T) {
	hub := newTestHub()
	client := newTestClient("appointments")
	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", hub.ClientCount())
	}
	if hub.TopicCount("appointments") != 1 {
		t.Fatalf("TopicCount = %d, want 1", hub.TopicCount("appointments"))
	}

	hub.Broadcast("appointments", ChangeEvent{
		Action:     "created",
		Topic:      "appointments",
		HospitalID: "default",
		RowID:      "appt-1",
		Timestamp:  time.Now(),
	})

	select {
	case data := <-client.Send:
		var ev ChangeEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Action != "created" || ev.RowID != "appt-1" {
			t.Errorf("event = %+v", ev)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestHub_BroadcastSkipsOtherTopics(t *testing.T) {
	hub := newTestHub()
	client := newTestClient("vitals")
	hub.Register(client)

	hub.Broadcast("appointments", ChangeEvent{Topic: "appointments"})

	select {
	case <-client.Send:
		t.Fatal("client received event for topic it never subscribed to")
	default:
	}
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	hub := newTestHub()
	client := newTestClient()
	hub.Register(client)

	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Topics: []string{"lab_orders"}})
	if hub.TopicCount("lab_orders") != 1 {
		t.Fatal("subscribe did not register topic")
	}

	hub.ProcessMessage(client, ClientMessage{Action: "unsubscribe", Topics: []string{"lab_orders"}})
	if hub.TopicCount("lab_orders") != 0 {
		t.Fatal("unsubscribe did not remove topic")
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := newTestHub()
	client := newTestClient("queue")
	hub.Register(client)
	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Fatalf("ClientCount = %d after unregister", hub.ClientCount())
	}
	if _, open := <-client.Send; open {
		t.Fatal("Send channel still open after unregister")
	}

	// Double unregister must not panic.
	hub.Unregister(client)
}

func TestHub_SlowClientSkipped(t *testing.T) {
	hub := newTestHub()
	client := &Client{ID: "slow", Topics: []string{"queue"}, Send: make(chan []byte)}
	hub.Register(client)

	done := make(chan struct{})
	go func() {
		hub.Broadcast("queue", ChangeEvent{Topic: "queue"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on slow client")
	}
}

func TestHub_PublishSetsTimestamp(t *testing.T) {
	hub := newTestHub()
	client := newTestClient("bills")
	hub.Register(client)

	if err := hub.Publish(context.Background(), ChangeEvent{Topic: "bills", Action: "updated"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	data := <-client.Send
	var ev ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Timestamp.IsZero() {
		t.Error("Publish did not set timestamp")
	}
}
