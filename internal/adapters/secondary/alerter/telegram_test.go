package alerter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendAlert(t *testing.T) {
	var got sendMessageRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	thread := int64(42)
	c := NewClient(&Config{BotToken: "token", ChatID: -100, MessageThreadID: &thread, APIBaseURL: srv.URL}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NotNil(t, c)

	require.NoError(t, c.SendAlert(context.Background(), "quota commit failed"))
	assert.Equal(t, "/bottoken/sendMessage", path)
	assert.Equal(t, int64(-100), got.ChatID)
	assert.Equal(t, "quota commit failed", got.Text)
	require.NotNil(t, got.MessageThreadID)
	assert.Equal(t, int64(42), *got.MessageThreadID)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"chat not found"}`))
	}))
	defer srv.Close()

	c := NewClient(&Config{BotToken: "token", ChatID: 1, APIBaseURL: srv.URL}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := c.SendAlert(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestNewClient_Disabled(t *testing.T) {
	assert.Nil(t, NewClient(&Config{}, nil))
	assert.Nil(t, NewClient(nil, nil))

	var c *Client
	assert.Error(t, c.SendAlert(context.Background(), "x"))
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("я", maxMessageRunes+10)
	assert.Equal(t, maxMessageRunes, len([]rune(truncate(long, maxMessageRunes))))
	assert.Equal(t, "short", truncate("short", maxMessageRunes))
}
