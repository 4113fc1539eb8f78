package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSummary(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotChat = r.FormValue("chat_id")
		gotText = r.FormValue("text")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier("bot-token", "chat-42")
	n.baseURL = srv.URL

	err := n.PublishSummary(context.Background(), "dedup done: processed=500")
	require.NoError(t, err)
	assert.Equal(t, "/botbot-token/sendMessage", gotPath)
	assert.Equal(t, "chat-42", gotChat)
	assert.Equal(t, "dedup done: processed=500", gotText)
}

func TestPublishSummaryServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewNotifier("bot-token", "chat-42")
	n.baseURL = srv.URL

	err := n.PublishSummary(context.Background(), "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestPublishSummaryMisconfigured(t *testing.T) {
	t.Parallel()

	n := &Notifier{}
	require.Error(t, n.PublishSummary(context.Background(), "summary"))
}
