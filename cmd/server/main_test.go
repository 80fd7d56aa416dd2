package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWorkspaces ends every open stream when closed, like the registry
// closing its undo subscribers.
type fakeWorkspaces struct {
	streams chan struct{}
	ctxErr  error
}

func (f *fakeWorkspaces) Close(ctx context.Context) error {
	f.ctxErr = ctx.Err()
	close(f.streams)
	return nil
}

func TestShutdown_ClosesWorkspacesBeforeDraining(t *testing.T) {
	ws := &fakeWorkspaces{streams: make(chan struct{})}
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		select {
		case <-ws.streams:
		case <-r.Context().Done():
		}
	})}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = server.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/dashboard/pending/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	start := time.Now()
	err = shutdown(server, ws, 2*time.Second)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second, "an open stream must not hold shutdown until its deadline")
	assert.NoError(t, ws.ctxErr, "workspaces close with a live context")
}

type failingWorkspaces struct{}

func (failingWorkspaces) Close(ctx context.Context) error { return errors.New("commit failed") }

func TestShutdown_ReportsWorkspaceErrors(t *testing.T) {
	server := &http.Server{Handler: http.NotFoundHandler()}
	err := shutdown(server, failingWorkspaces{}, time.Second)
	assert.ErrorContains(t, err, "commit failed")
}
