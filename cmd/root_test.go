package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	color.NoColor = true

	orig := readInput
	readInput = func() string { return "" }
	t.Cleanup(func() { readInput = orig })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_StreamsReply(t *testing.T) {
	var got struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("hello "))
		w.(http.Flusher).Flush()
		w.Write([]byte("world"))
	}))
	defer srv.Close()

	out, err := execute(t, "--endpoint", srv.URL, "--delay", "0", "--session", "s-1", "hi", "there")
	require.NoError(t, err)

	assert.Equal(t, "hi there", got.Message)
	assert.Equal(t, "s-1", got.SessionID)
	assert.Contains(t, out, "hello world")
}

func TestRun_BufferedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "message": "all at once"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "--endpoint", srv.URL, "--delay", "0", "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "all at once")
}

func TestRun_FailureIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	out, err := execute(t, "--endpoint", srv.URL, "--delay", "0", "ping")
	assert.ErrorIs(t, err, ErrReported)
	assert.Contains(t, out, "Error (transport)")
}

func TestRun_RequiresMessage(t *testing.T) {
	_, err := execute(t, "--endpoint", "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "please provide a message")
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		w.Write([]byte(`{"message": "ok"}`))
	}))
	defer srv.Close()

	detail, err := probe(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, detail, "status 200")

	srv.Close()
	_, err = probe(context.Background(), srv.URL)
	assert.Error(t, err)
}
