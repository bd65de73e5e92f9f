package core

import (
	"testing"
	"time"
)

func TestHubSubscribeAndBroadcastRoom(t *testing.T) {
	hub := NewHub()
	s1 := NewSession("c1", "u1")
	s2 := NewSession("c2", "u2")
	s3 := NewSession("c3", "u3")
	hub.Register(s1)
	hub.Register(s2)
	hub.Register(s3)

	hub.Subscribe(s1, "u1_lobby")
	hub.Subscribe(s2, "u1_lobby")

	hub.BroadcastRoom("u1_lobby", &Event{Kind: EventRoomMessage, RoomID: "u1_lobby", Value: "hi"})

	mustEvent(t, s1.Events, EventRoomMessage)
	mustEvent(t, s2.Events, EventRoomMessage)
	select {
	case ev := <-s3.Events:
		t.Fatalf("s3 should not receive room broadcast, got kind %v", ev.Kind)
	default:
	}
}

func TestHubBroadcastAll(t *testing.T) {
	hub := NewHub()
	s1 := NewSession("c1", "u1")
	s2 := NewSession("c2", "u2")
	hub.Register(s1)
	hub.Register(s2)

	hub.BroadcastAll(&Event{Kind: EventNotification, Value: "ping"})

	mustEvent(t, s1.Events, EventNotification)
	mustEvent(t, s2.Events, EventNotification)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	s1 := NewSession("c1", "u1")
	hub.Register(s1)
	hub.Subscribe(s1, "u1_lobby")

	hub.Unsubscribe(s1, "u1_lobby")
	if rooms := hub.Subscriptions(s1); len(rooms) != 0 {
		t.Fatalf("expected no subscriptions, got %v", rooms)
	}

	hub.BroadcastRoom("u1_lobby", &Event{Kind: EventRoomMessage})
	select {
	case <-s1.Events:
		t.Fatal("unsubscribed session should not receive room broadcast")
	default:
	}

	// Unsubscribing from a room with no group is a no-op.
	hub.Unsubscribe(s1, "ghost")
}

func TestHubUnregisterClearsGroups(t *testing.T) {
	hub := NewHub()
	s1 := NewSession("c1", "u1")
	s2 := NewSession("c2", "u2")
	hub.Register(s1)
	hub.Register(s2)
	hub.Subscribe(s1, "u1_lobby")
	hub.Subscribe(s1, "u2_attic")
	hub.Subscribe(s2, "u1_lobby")

	hub.Unregister(s1)

	if rooms := hub.Subscriptions(s1); len(rooms) != 0 {
		t.Fatalf("expected no subscriptions after unregister, got %v", rooms)
	}
	if rooms := hub.Subscriptions(s2); len(rooms) != 1 || rooms[0] != "u1_lobby" {
		t.Fatalf("s2 subscriptions should survive, got %v", rooms)
	}

	hub.BroadcastAll(&Event{Kind: EventNotification})
	select {
	case <-s1.Events:
		t.Fatal("unregistered session should not receive broadcasts")
	default:
	}
	mustEvent(t, s2.Events, EventNotification)
}

func TestHubSlowConsumerDropped(t *testing.T) {
	hub := NewHub()
	s1 := NewSession("c1", "u1")
	hub.Register(s1)

	// Fill the session buffer; further broadcasts must not block.
	for i := 0; i < cap(s1.Events); i++ {
		s1.Push(&Event{Kind: EventNotification})
	}
	done := make(chan struct{})
	go func() {
		hub.BroadcastAll(&Event{Kind: EventNotification})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on slow consumer")
	}
}
