package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mkravets/roomwire-server/internal/client"
	"github.com/mkravets/roomwire-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("room_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	api := flag.String("api", "http://localhost:8000", "HTTP API base URL")
	wsAddr := flag.String("addr", "ws://localhost:8000/ws", "WebSocket address")
	identityID := flag.String("identity", "", "identity to use (fetched from the server when empty)")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	id := *identityID
	if id == "" {
		var err error
		id, err = fetchIdentity(ctx, *api)
		if err != nil {
			return fmt.Errorf("fetch identity: %w", err)
		}
		fmt.Printf("Issued identity %s\n", id)
	}

	conn, err := client.Dial(ctx, *wsAddr, id)
	if err != nil {
		return err
	}
	defer conn.Close()

	room := client.NewRoomClient(conn)
	rooms := client.NewRoomManager(conn)

	removeWelcome := conn.On(proto.EventWelcome, func(frame client.Frame) {
		var greeting string
		_ = json.Unmarshal(frame.Data, &greeting)
		fmt.Printf("<< %s\n", greeting)
	})
	defer removeWelcome()

	removeCreated := rooms.OnCreated(func(data proto.CreatedData) {
		fmt.Printf("<< room created: %s (%s)\n", data.RoomName, data.ID)
	})
	defer removeCreated()

	removeMsg := conn.On(proto.EventRoomMessage, func(frame client.Frame) {
		var data proto.RoomMessageData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			return
		}
		fmt.Printf("[%s] %s: %s\n", data.RoomID, data.From, data.Text)
	})
	defer removeMsg()

	if err := room.Load(ctx); err != nil {
		fmt.Printf("load failed: %v\n", err)
	}

	fmt.Println("Commands: /create <name>, /list, /join <roomId>, /leave, /status. Anything else is sent to the current room. Ctrl+C to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := handleLine(ctx, line, conn, room, rooms); err != nil {
			fmt.Printf("error: %v\n", err)
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
	return scanner.Err()
}

func handleLine(ctx context.Context, line string, conn *client.Conn, room *client.RoomClient, rooms *client.RoomManager) error {
	switch {
	case strings.HasPrefix(line, "/create "):
		name := strings.TrimSpace(strings.TrimPrefix(line, "/create "))
		reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rooms.Create(reqCtx, name); err != nil {
			return err
		}
		fmt.Println("created")
		return nil
	case line == "/list":
		reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		listed, err := rooms.List(reqCtx)
		if err != nil {
			return err
		}
		if len(listed) == 0 {
			fmt.Println("no rooms")
			return nil
		}
		for id, info := range listed {
			fmt.Printf("  %s  %s\n", id, info.Name)
		}
		return nil
	case strings.HasPrefix(line, "/join "):
		roomID := strings.TrimSpace(strings.TrimPrefix(line, "/join "))
		return room.Join(ctx, roomID)
	case line == "/leave":
		return room.Leave(ctx)
	case line == "/status":
		fmt.Println(room.StatusMessage())
		return nil
	default:
		return conn.Emit(ctx, proto.EventRoomMessage, proto.MessageData{Text: line})
	}
}

func fetchIdentity(ctx context.Context, api string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, api+"/id", bytes.NewReader(nil))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.ID, nil
}
