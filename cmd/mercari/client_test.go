package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mercari/internal/api"
	"mercari/internal/config"
)

func closedPortURL(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	if err := ln.Close(); err != nil {
		t.Fatalf("close listener: %v", err)
	}
	return "http://" + addr
}

func TestIsConnRefused(t *testing.T) {
	err := api.NewClient(closedPortURL(t)).Ping(context.Background())
	if err == nil {
		t.Fatal("expected ping against a closed port to fail")
	}
	if !isConnRefused(err) {
		t.Fatalf("expected connection refused, got %v", err)
	}

	if isConnRefused(context.DeadlineExceeded) {
		t.Fatal("deadline exceeded is not a refused connection")
	}
	if isConnRefused(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("i/o timeout")}) {
		t.Fatal("a dial timeout is not a refused connection")
	}
	if isConnRefused(&net.DNSError{Err: "no such host", Name: "mercari.invalid", IsNotFound: true}) {
		t.Fatal("a DNS failure is not a refused connection")
	}
}

func TestEnsureServerUsesRunningServer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	cfg := config.Default()
	cfg.APIURL = ts.URL
	cleanup, err := ensureServer(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("ensure server: %v", err)
	}
	if cleanup != nil {
		t.Fatal("expected no spawned server when one is already running")
	}
}

func TestEnsureServerDoesNotSpawnForHungServer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	cfg := config.Default()
	cfg.APIURL = ts.URL

	start := time.Now()
	cleanup, err := ensureServer(context.Background(), &cfg)
	if cleanup != nil {
		cleanup()
		t.Fatal("expected no spawned server for a hung peer")
	}
	if err == nil {
		t.Fatal("expected the ping error to be returned")
	}
	if elapsed := time.Since(start); elapsed > serverStartTimeout {
		t.Fatalf("expected the ping to give up quickly, took %v", elapsed)
	}
}
