package workers

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestHTTPServerServesAndShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening: %v", err)
	}

	srv := NewHTTPServer(ln.Addr().String(), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- srv.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("expected ok, got %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected shutdown error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAddr(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "127.0.0.1:8080"},
		{"localhost:8080", "localhost:8080"},
		{"0.0.0.0:8080", "0.0.0.0:8080"},
		{"[::1]:8080", "[::1]:8080"},
		{"bad", "bad"},
	}

	for _, test := range tests {
		if got := listenAddr(test.addr); got != test.want {
			t.Errorf("For %q, expected %q, but got %q", test.addr, test.want, got)
		}
	}
}

func TestNewHTTPServerDefaultsToLoopback(t *testing.T) {
	srv := NewHTTPServer(":0", http.NotFoundHandler())
	if srv.srv.Addr != "127.0.0.1:0" {
		t.Errorf("expected loopback address, got %q", srv.srv.Addr)
	}
}
