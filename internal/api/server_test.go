package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/partyquiz/internal/testutil"
)

func TestServerServesAndShutsDown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	cfg := DefaultServerConfig()
	cfg.ShutdownTimeout = time.Second
	server := NewServer(handler, cfg, testutil.NopLogger())

	shutdownHooks := make(chan struct{})
	server.RegisterOnShutdown(func() { close(shutdownHooks) })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	require.NoError(t, server.Shutdown(context.Background()))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
	select {
	case <-shutdownHooks:
	case <-time.After(time.Second):
		t.Fatal("shutdown hook did not run")
	}
}

func TestServerStartFailsOnBadAddr(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Addr = "127.0.0.1:-1"
	server := NewServer(http.NotFoundHandler(), cfg, testutil.NopLogger())

	assert.Error(t, server.Start())
}
