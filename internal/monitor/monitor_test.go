package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brfid/brfid.github.io-sub000/internal/util"
)

type fakeSource struct{ n atomic.Uint64 }

func (f *fakeSource) Counters() util.Snapshot {
	return util.Snapshot{{Name: "wrapped", Value: f.n.Load()}, {Name: "parse_errors", Value: 0}}
}

type decoded struct {
	Component string            `json:"component"`
	Counters  map[string]uint64 `json:"counters"`
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) decoded {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg decoded
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestStreamSendsSnapshots(t *testing.T) {
	src := &fakeSource{}
	src.n.Store(4)
	s := NewServer("hi1-shim", src, 20*time.Millisecond)
	defer s.Close()

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialWS(t, ts.URL)
	first := readMessage(t, conn)
	if first.Component != "hi1-shim" || first.Counters["wrapped"] != 4 {
		t.Fatalf("unexpected first message %+v", first)
	}

	src.n.Store(9)
	deadline := time.Now().Add(2 * time.Second)
	for {
		msg := readMessage(t, conn)
		if msg.Counters["wrapped"] == 9 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("stream never reflected the new counter value")
		}
	}
}

func TestCloseEndsStream(t *testing.T) {
	s := NewServer("chaosnet-bridge", &fakeSource{}, time.Hour)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialWS(t, ts.URL)
	readMessage(t, conn)
	s.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going-away close, got %v", err)
	}
}

func TestCountersEndpoint(t *testing.T) {
	src := &fakeSource{}
	src.n.Store(2)
	ts := httptest.NewServer(NewServer("hi1-shim", src, 0).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/counters")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	var msg decoded
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Counters["wrapped"] != 2 {
		t.Fatalf("unexpected body %+v", msg)
	}

	post, err := http.Post(ts.URL+"/counters", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("POST status %d", post.StatusCode)
	}
}

func TestStartBindsAddress(t *testing.T) {
	s := NewServer("hi1-shim", &fakeSource{}, 0)
	addr, err := s.Start("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	resp, err := http.Get("http://" + addr.String() + "/counters")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
}
