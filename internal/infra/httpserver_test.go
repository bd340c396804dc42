package infra

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestHTTPServerRunStopsOnCancel(t *testing.T) {
	cfg := &Config{Port: "0", ShutdownTimeout: time.Second}
	srv := NewHTTPServer(cfg, http.NotFoundHandler())
	if srv.Addr() != ":0" {
		t.Fatalf("unexpected addr %q", srv.Addr())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
