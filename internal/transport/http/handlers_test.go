package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mkravets/roomwire-server/internal/config"
	"github.com/mkravets/roomwire-server/internal/core"
	"github.com/mkravets/roomwire-server/internal/identity"
	"github.com/mkravets/roomwire-server/internal/store/sqlite"
)

func newTestServer(t *testing.T) (*httptest.Server, *core.Hub) {
	t.Helper()

	logger := zerolog.New(nil)
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ids := identity.NewService(st, identity.DefaultTTL, &logger)
	hub := core.NewHub()
	cfg := config.Default()

	wsStub := stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
	})
	srv := NewServer(ids, st, hub, wsStub, &cfg, &logger)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts, hub
}

func decodeBody(t *testing.T, resp *stdhttp.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := stdhttp.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestIssueIdentity(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := stdhttp.Post(ts.URL+"/id", "application/json", nil)
	if err != nil {
		t.Fatalf("post id: %v", err)
	}
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body IDResponse
	decodeBody(t, resp, &body)
	if len(body.ID) != 64 {
		t.Fatalf("expected 64 hex chars, got %q", body.ID)
	}

	// Two issues never collide.
	resp, err = stdhttp.Post(ts.URL+"/id", "application/json", nil)
	if err != nil {
		t.Fatalf("post id: %v", err)
	}
	var second IDResponse
	decodeBody(t, resp, &second)
	if second.ID == body.ID {
		t.Fatal("identities must be unique")
	}
}

func TestSubmitDocument(t *testing.T) {
	ts, hub := newTestServer(t)

	sess := core.NewSession("c1", "u1")
	hub.Register(sess)

	resp, err := stdhttp.Post(ts.URL+"/documents", "application/json",
		strings.NewReader(`{"name":"alex","age":30}`))
	if err != nil {
		t.Fatalf("post document: %v", err)
	}
	if resp.StatusCode != stdhttp.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["message"] != "Data saved successfully" {
		t.Fatalf("unexpected body: %v", body)
	}

	select {
	case ev := <-sess.Events:
		if ev.Kind != core.EventNotification || ev.Value != "Created user." {
			t.Fatalf("unexpected notification: %+v", ev)
		}
		if ev.NoteID == "" {
			t.Fatal("notification must carry an id")
		}
	default:
		t.Fatal("expected a notification broadcast")
	}

	resp, err = stdhttp.Get(ts.URL + "/documents")
	if err != nil {
		t.Fatalf("get documents: %v", err)
	}
	var docs []DocumentResponse
	decodeBody(t, resp, &docs)
	if len(docs) != 1 || docs[0].Name != "alex" || docs[0].Age != 30 {
		t.Fatalf("unexpected documents: %+v", docs)
	}
}

func TestSubmitDocumentInvalid(t *testing.T) {
	ts, hub := newTestServer(t)

	sess := core.NewSession("c1", "u1")
	hub.Register(sess)

	for _, payload := range []string{
		`{"name":"kid","age":15}`,
		`{"age":30}`,
		`{"name":"alex","age":30,"extra":true}`,
		`not json`,
	} {
		resp, err := stdhttp.Post(ts.URL+"/documents", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("post document: %v", err)
		}
		if resp.StatusCode != stdhttp.StatusBadRequest {
			t.Fatalf("payload %q: expected 400, got %d", payload, resp.StatusCode)
		}
		var body map[string]any
		decodeBody(t, resp, &body)
		if body["error"] != "Invalid JSON format" {
			t.Fatalf("unexpected error body: %v", body)
		}
	}

	select {
	case ev := <-sess.Events:
		if ev.Kind != core.EventNotification || ev.Value != "Failed to create user." {
			t.Fatalf("unexpected notification: %+v", ev)
		}
	default:
		t.Fatal("expected a failure notification")
	}

	resp, err := stdhttp.Get(ts.URL + "/documents")
	if err != nil {
		t.Fatalf("get documents: %v", err)
	}
	var docs []DocumentResponse
	decodeBody(t, resp, &docs)
	if len(docs) != 0 {
		t.Fatalf("rejected submissions must not be stored, got %+v", docs)
	}
}

func TestSchema(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := stdhttp.Get(ts.URL + "/schema")
	if err != nil {
		t.Fatalf("get schema: %v", err)
	}
	var schema map[string]any
	decodeBody(t, resp, &schema)
	if schema["type"] != "object" {
		t.Fatalf("unexpected schema: %v", schema)
	}
	required, ok := schema["required"].([]any)
	if !ok || len(required) != 2 {
		t.Fatalf("unexpected required list: %v", schema["required"])
	}
}

func TestNotFoundRoute(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := stdhttp.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != stdhttp.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var body ErrorResponse
	decodeBody(t, resp, &body)
	if body.Error != "Not Found" || !strings.Contains(body.Message, "/nope") {
		t.Fatalf("unexpected body: %+v", body)
	}
}
