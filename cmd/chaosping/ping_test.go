package main

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brfid/brfid.github.io-sub000/internal/bridge"
	"github.com/brfid/brfid.github.io-sub000/internal/chaos"
)

var (
	probeAddr = chaos.Address{Host: 0x0001, Subnet: 0x01}
	its       = chaos.Address{Host: 0x7700, Subnet: 0x01}
)

func startBridge(t *testing.T) *net.UDPAddr {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	cfg := bridge.DefaultConfig()
	cfg.BindAddress = "127.0.0.1"
	cfg.ListenPort = 0
	b, err := bridge.New(ctx, cfg)
	if err != nil {
		cancel()
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return b.LocalAddr()
}

// startResponder answers every datagram with a packet of type reply.
func startResponder(t *testing.T, reply chaos.Type) *net.UDPAddr {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 2048)
		for {
			_, from, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			conn.WriteToUDP(chaos.Pack(chaos.NewPacket(reply, its, probeAddr, nil)), from)
		}
	}()
	return conn.LocalAddr().(*net.UDPAddr)
}

func options(addr *net.UDPAddr) Options {
	return Options{
		Host:    addr.IP.String(),
		Port:    addr.Port,
		Src:     probeAddr,
		Dst:     its,
		Timeout: 2 * time.Second,
		RunID:   "test-run",
	}
}

func TestPingPassesAgainstBridge(t *testing.T) {
	opts := options(startBridge(t))
	opts.Data = []byte("hello its")

	res := Ping(context.Background(), opts)
	if res.Status != StatusPass {
		t.Fatalf("status = %s, steps %+v", res.Status, res.Steps)
	}
	want := [][2]string{{"RFC", "OPN"}, {"DAT", "ACK"}, {"CLS", "CLS"}}
	if len(res.Steps) != len(want) {
		t.Fatalf("got %d steps, want %d", len(res.Steps), len(want))
	}
	for i, w := range want {
		if res.Steps[i].Sent != w[0] || res.Steps[i].Received != w[1] {
			t.Errorf("step %d: %s -> %s, want %s -> %s", i, res.Steps[i].Sent, res.Steps[i].Received, w[0], w[1])
		}
	}
}

func TestPingRFCOnly(t *testing.T) {
	res := Ping(context.Background(), options(startBridge(t)))
	if res.Status != StatusPass || len(res.Steps) != 1 {
		t.Fatalf("status = %s, steps %+v", res.Status, res.Steps)
	}
}

func TestPingUnexpectedResponse(t *testing.T) {
	res := Ping(context.Background(), options(startResponder(t, chaos.TypeCLS)))
	if res.Status != StatusUnexpected {
		t.Fatalf("status = %s", res.Status)
	}
	if res.Steps[0].Received != "CLS" {
		t.Errorf("received = %q", res.Steps[0].Received)
	}
}

func TestPingTimeout(t *testing.T) {
	silent, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer silent.Close()

	opts := options(silent.LocalAddr().(*net.UDPAddr))
	opts.Timeout = 100 * time.Millisecond

	res := Ping(context.Background(), opts)
	if res.Status != StatusTimeout {
		t.Fatalf("status = %s", res.Status)
	}
}

func TestPingCancelled(t *testing.T) {
	silent, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer silent.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	opts := options(silent.LocalAddr().(*net.UDPAddr))
	opts.Timeout = time.Minute

	start := time.Now()
	res := Ping(ctx, opts)
	if res.Status == StatusPass {
		t.Fatal("cancelled ping passed")
	}
	if time.Since(start) > 10*time.Second {
		t.Fatal("ping ignored cancellation")
	}
}

func TestResultWriteJSON(t *testing.T) {
	res := Ping(context.Background(), options(startBridge(t)))
	path := filepath.Join(t.TempDir(), "out", "chaosping.json")
	if err := res.WriteJSON(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["status"] != StatusPass || decoded["run_id"] != "test-run" {
		t.Fatalf("unexpected document %s", data)
	}
}
