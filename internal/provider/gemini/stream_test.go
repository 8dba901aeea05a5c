package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseServer(t *testing.T, status int, chunks []string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:streamGenerateContent", r.URL.Path)
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":{"message":"quota exhausted"}}`)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\r\n\r\n", chunk)
			flusher.Flush()
		}
	}))
}

func recvAll(t *testing.T, s *Stream) []*Event {
	t.Helper()

	events := []*Event{}
	for {
		ev, err := s.Recv()
		if err == io.EOF {
			return events
		}

		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestClient_Generate(t *testing.T) {
	t.Run("text deltas and usage snapshots are normalized in order", func(t *testing.T) {
		srv := sseServer(t, http.StatusOK, []string{
			`{"candidates":[{"content":{"parts":[{"text":"Hello"}]}}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":2}}`,
			`{"candidates":[{"content":{"parts":[{"text":" world"}]}}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":5}}`,
		})
		defer srv.Close()

		client := NewClient("test-key", srv.URL, "gemini-test")
		stream, err := client.Generate(context.Background(), "make a course", nil)
		require.NoError(t, err)
		defer stream.Close()

		events := recvAll(t, stream)
		require.Len(t, events, 4)

		assert.Equal(t, EventTypeTextDelta, events[0].Type)
		assert.Equal(t, "Hello", events[0].Text)
		assert.Equal(t, EventTypeUsageSnapshot, events[1].Type)
		assert.Equal(t, 12, events[1].Usage.Total())
		assert.Equal(t, EventTypeTextDelta, events[2].Type)
		assert.Equal(t, " world", events[2].Text)
		assert.Equal(t, EventTypeUsageSnapshot, events[3].Type)
		assert.Equal(t, 15, events[3].Usage.Total())
	})

	t.Run("regressed usage snapshots are dropped", func(t *testing.T) {
		srv := sseServer(t, http.StatusOK, []string{
			`{"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":20}}`,
			`{"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":5}}`,
			`{"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":25}}`,
		})
		defer srv.Close()

		client := NewClient("test-key", srv.URL, "gemini-test")
		stream, err := client.Generate(context.Background(), "p", nil)
		require.NoError(t, err)
		defer stream.Close()

		events := recvAll(t, stream)
		require.Len(t, events, 2)
		assert.Equal(t, 30, events[0].Usage.Total())
		assert.Equal(t, 35, events[1].Usage.Total())
	})

	t.Run("non data lines are skipped", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, ": keepalive\n\n")
			fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"x\"}]}}]}\n\n")
		}))
		defer srv.Close()

		client := NewClient("test-key", srv.URL, "gemini-test")
		stream, err := client.Generate(context.Background(), "p", nil)
		require.NoError(t, err)
		defer stream.Close()

		events := recvAll(t, stream)
		require.Len(t, events, 1)
		assert.Equal(t, "x", events[0].Text)
	})

	t.Run("non 200 response fails fast with an upstream error", func(t *testing.T) {
		srv := sseServer(t, http.StatusTooManyRequests, nil)
		defer srv.Close()

		client := NewClient("test-key", srv.URL, "gemini-test")
		stream, err := client.Generate(context.Background(), "p", nil)
		require.Error(t, err)
		assert.Nil(t, stream)

		type upstream interface{ Upstream() }
		_, ok := err.(upstream)
		assert.True(t, ok)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("unreachable host fails fast with an upstream error", func(t *testing.T) {
		client := NewClient("test-key", "http://127.0.0.1:1", "gemini-test")
		_, err := client.Generate(context.Background(), "p", nil)
		require.Error(t, err)

		type upstream interface{ Upstream() }
		_, ok := err.(upstream)
		assert.True(t, ok)
	})

	t.Run("cancelled context terminates the stream abnormally", func(t *testing.T) {
		block := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"x\"}]}}]}\n\n")
			w.(http.Flusher).Flush()
			<-block
		}))
		defer srv.Close()
		defer close(block)

		ctx, cancel := context.WithCancel(context.Background())
		client := NewClient("test-key", srv.URL, "gemini-test")
		stream, err := client.Generate(ctx, "p", nil)
		require.NoError(t, err)
		defer stream.Close()

		ev, err := stream.Recv()
		require.NoError(t, err)
		assert.Equal(t, "x", ev.Text)

		cancel()

		_, err = stream.Recv()
		require.Error(t, err)
		assert.NotEqual(t, io.EOF, err)
	})
}
