package ws

import (
	"context"
	"testing"
	"time"

	"github.com/mkravets/roomwire-server/internal/client"
)

func waitState(t *testing.T, c *client.RoomClient, want client.State) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state never reached %v, stuck at %v (%s)", want, c.State(), c.StatusMessage())
}

func TestClientAgainstServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	env := newTestEnv(t)
	id := env.issue(t, ctx)

	conn, err := client.Dial(ctx, env.wsURL(), id)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	room := client.NewRoomClient(conn)
	rooms := client.NewRoomManager(conn)

	// Fresh identity: the startup query settles back to Initial.
	if err := room.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	waitState(t, room, client.StateInitial)
	if room.Err() != "" {
		t.Fatalf("load should not error, got %q", room.Err())
	}

	if err := rooms.Create(ctx, "lobby"); err != nil {
		t.Fatalf("create: %v", err)
	}
	listed, err := rooms.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	roomID := id + "_lobby"
	if _, ok := listed[roomID]; !ok {
		t.Fatalf("expected %s in listing, got %+v", roomID, listed)
	}

	if err := room.Join(ctx, roomID); err != nil {
		t.Fatalf("join: %v", err)
	}
	waitState(t, room, client.StateJoined)

	if err := room.Leave(ctx); err != nil {
		t.Fatalf("leave: %v", err)
	}
	waitState(t, room, client.StateDisconnected)

	// Disconnected declares a rejoin transition.
	if err := rooms.Create(ctx, "den"); err != nil {
		t.Fatalf("second create: %v", err)
	}
	if err := room.Join(ctx, id+"_den"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	waitState(t, room, client.StateJoined)
}
