package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-archive-writer/internal/config"
)

func TestEnvOr(t *testing.T) {
	t.Setenv("ARCHIVE_TEST_VALUE", "set")

	if got := envOr("ARCHIVE_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("Expected env value, got %q", got)
	}
	if got := envOr("ARCHIVE_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %q", got)
	}
}

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find a free port: %v", err)
	}
	defer l.Close()
	return fmt.Sprint(l.Addr().(*net.TCPAddr).Port)
}

func TestRunServesUntilCancelled(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = freePort(t)
	cfg.Storage.Path = filepath.Join(t.TempDir(), "writer.db")

	originalAppConfig := config.AppConfig
	config.AppConfig = cfg
	defer func() { config.AppConfig = originalAppConfig }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, zerolog.Nop(), cfg) }()

	url := "http://127.0.0.1:" + cfg.Server.Port + "/robots.txt"
	var res *http.Response
	var err error
	for i := 0; i < 50; i++ {
		res, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		cancel()
		t.Fatalf("Server never came up: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()

	if res.StatusCode != http.StatusOK || string(body) != "User-agent: *\nDisallow: /" {
		t.Errorf("Unexpected robots.txt response: %d %q", res.StatusCode, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not shut down")
	}
}
