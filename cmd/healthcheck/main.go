package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ericfisherdev/keycausa/internal/config"
)

const defaultAddr = "127.0.0.1:7411"

func main() {
	os.Exit(check(listenAddr(os.Args[1:])))
}

// listenAddr picks the address to probe. An explicit argument covers servers
// started with --listen; otherwise KEYCAUSA_LISTEN_ADDR is read from the
// environment or the .env file in the working directory, as the server does.
func listenAddr(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	_ = godotenv.Load(config.DotEnvFile)
	return os.Getenv("KEYCAUSA_LISTEN_ADDR")
}

func check(raw string) int {
	addr := normalizeAddr(raw)

	client := &http.Client{Timeout: 2 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/api/v1/health", addr), nil)
	if err != nil {
		return 1
	}

	resp, err := client.Do(req)
	if err != nil {
		return 1
	}
	defer resp.Body.Close()

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return 1
	}

	if resp.StatusCode != http.StatusOK {
		return 1
	}

	// A vault that is mid-restore still answers but is not serving requests.
	if health.Status != "ok" {
		return 1
	}

	return 0
}

// normalizeAddr points the probe at loopback when the server binds every
// interface, since the probe always runs on the same host.
func normalizeAddr(raw string) string {
	if raw == "" {
		return defaultAddr
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultAddr
	}

	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
