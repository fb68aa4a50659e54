package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weathermap/internal/model"
)

func TestWebhookName(t *testing.T) {
	p := NewWebhook("http://localhost/hook", "", "", nil)
	assert.Equal(t, "webhook", p.Name())
}

func TestWebhookSendJSON(t *testing.T) {
	var gotBody webhookPayload
	var gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhook(srv.URL+"/hook", "", "http://maps.example.net/", nil)
	notif := model.Notification{
		AlertType: "link_saturated",
		Severity:  "warning",
		Title:     "Link Saturated: core -- edge",
		Message:   "core:eth0 -- edge:xe-0/0/0 at 950 Mbit/s",
		Subject:   "core:eth0 -- edge:xe-0/0/0",
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Metadata:  map[string]string{"out_mbps": "950"},
	}

	err := p.Send(context.Background(), notif)
	require.NoError(t, err)

	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "link_saturated", gotBody.AlertType)
	assert.Equal(t, "warning", gotBody.Severity)
	assert.Equal(t, "Link Saturated: core -- edge", gotBody.Title)
	assert.Equal(t, "950", gotBody.Metadata["out_mbps"])
	assert.Equal(t, "weathermap", gotBody.Source)
	assert.Equal(t, "http://maps.example.net/", gotBody.MapURL)
}

func TestWebhookOmitsEmptyMapURL(t *testing.T) {
	var gotRaw map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &gotRaw)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhook(srv.URL, "", "", nil)
	err := p.Send(context.Background(), model.Notification{Severity: "info", Title: "Test", Message: "test"})
	require.NoError(t, err)
	assert.NotContains(t, gotRaw, "map_url")
	assert.Equal(t, "weathermap", gotRaw["source"])
}

func TestWebhookCustomHeaders(t *testing.T) {
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhook(srv.URL, "", "", map[string]string{"Authorization": "Bearer tok123"})
	err := p.Send(context.Background(), model.Notification{
		Severity: "info",
		Title:    "Test",
		Message:  "test",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestWebhookMethodOverride(t *testing.T) {
	var gotMethod string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhook(srv.URL, http.MethodPut, "", nil)
	err := p.Send(context.Background(), model.Notification{Severity: "info", Title: "Test", Message: "test"})
	require.NoError(t, err)
	assert.Equal(t, "PUT", gotMethod)
}

func TestWebhookDefaultMethodIsPost(t *testing.T) {
	var gotMethod string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhook(srv.URL, "", "", nil)
	err := p.Send(context.Background(), model.Notification{Severity: "info", Title: "Test", Message: "test"})
	require.NoError(t, err)
	assert.Equal(t, "POST", gotMethod)
}

func TestWebhookServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewWebhook(srv.URL, "", "", nil)
	err := p.Send(context.Background(), model.Notification{Severity: "info", Title: "Test", Message: "test"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookSendCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhook(srv.URL, "", "", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Send(ctx, model.Notification{Severity: "info", Title: "Test", Message: "cancelled"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "webhook: send:")
}
