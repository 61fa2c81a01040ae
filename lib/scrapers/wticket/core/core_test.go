package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"wticket-bot/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/wticket/core")
	defer cleanup()

	var steps []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/jsp/wf/index.jsp":
			steps = append(steps, "index")
			w.Header().Set("Set-Cookie", "JSESSIONID=ANON1; Path=/")
			w.Write([]byte("<html><head><title>WTicket</title></head></html>"))
		case r.Method == http.MethodPost && r.URL.Path == "/login" && r.URL.Query().Get("action") == "refreshsession":
			steps = append(steps, "refresh")
			require.Equal(t, "JSESSIONID=ANON1", r.Header.Get("Cookie"))
		case r.Method == http.MethodPost && r.URL.Path == "/login":
			steps = append(steps, "credentials")
			require.NoError(t, r.ParseForm())
			require.Equal(t, "jdoe", r.PostForm.Get("username"))
			require.Equal(t, "hunter2", r.PostForm.Get("password"))
			w.Header().Set("Set-Cookie", "JSESSIONID=ABC123; Path=/")
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	err = client.Login(context.Background(), "jdoe", "hunter2")
	require.NoError(t, err)
	require.Equal(t, []string{"index", "refresh", "credentials"}, steps)
	require.Equal(t, "ABC123", client.Token())
}

func TestLoginRejected(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/wticket/core")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Query().Get("action") == "" {
			w.Header().Set("message", "Invalid credentials")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Set-Cookie", "JSESSIONID=ANON1; Path=/")
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	err = client.Login(context.Background(), "jdoe", "wrong")
	require.EqualError(t, err, "Invalid credentials")
}

func TestLoginRejectedWithoutMessage(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/wticket/core")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Query().Get("action") == "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	err = client.Login(context.Background(), "jdoe", "hunter2")
	require.EqualError(t, err, "Something went wrong")
}

func TestSetCookieHeader(t *testing.T) {
	client, err := NewClient(ClientOptions{BaseUrl: "https://wticket.example.com"})
	require.NoError(t, err)

	client.SetCookieHeader("lang=nl; JSESSIONID=BROWSER1; theme=dark")
	require.Equal(t, "BROWSER1", client.Token())

	client.SetCookieHeader("lang=nl")
	require.Equal(t, "", client.Token())
}

func TestLogoutBestEffort(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/wticket/core")
	defer cleanup()

	requested := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
		require.Equal(t, "/login/wf/logout.jsp", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	// must not surface the failure
	client.Logout(context.Background())
	require.True(t, requested)
}
