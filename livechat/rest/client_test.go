package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetMessages(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/messages", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(MessagesResponse{
			Messages: []MessageInfo{{ID: "1", User: "alice", Body: "hi", CreatedAt: time.Unix(10, 0).UTC()}},
			HasMore:  true,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	c.SetToken("secret")
	resp, err := c.GetMessages(context.Background(), 20, "abc")
	require.NoError(t, err)
	require.Equal(t, "before=abc&limit=20", gotQuery)
	require.True(t, resp.HasMore)
	require.Len(t, resp.Messages, 1)
	require.Equal(t, "alice", resp.Messages[0].User)
}

func TestGetMessagesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad limit"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetMessages(context.Background(), -1, "")
	require.ErrorContains(t, err, "api error (status 400): bad limit")
}

func TestGetMessagesPlainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetMessages(context.Background(), 0, "")
	require.ErrorContains(t, err, "status 500")
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/healthz", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok","onlineCount":3}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, &HealthResponse{Status: "ok", OnlineCount: 3}, resp)
}

func TestGetMessagesNumericIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"messages":[` +
			`{"id":1,"username":"alice","content":"one","createdAt":"2024-01-01T00:00:10Z"},` +
			`{"id":"x2","username":"bob","content":"two","createdAt":"2024-01-01T00:00:20Z"},` +
			`{"id":null,"username":"bob","content":"three","createdAt":"2024-01-01T00:00:30Z"}],"hasMore":false}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).GetMessages(context.Background(), 0, "")
	require.NoError(t, err)
	require.Len(t, resp.Messages, 3)
	require.Equal(t, "1", resp.Messages[0].ID)
	require.Equal(t, "alice", resp.Messages[0].User)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC), resp.Messages[0].CreatedAt)
	require.Equal(t, "x2", resp.Messages[1].ID)
	require.Empty(t, resp.Messages[2].ID)
}

func TestGetMessagesRejectsBadID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"messages":[{"id":true}]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetMessages(context.Background(), 0, "")
	require.ErrorContains(t, err, "message id")
}
