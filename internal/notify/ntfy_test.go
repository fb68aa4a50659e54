package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weathermap/internal/model"
)

func TestNtfyName(t *testing.T) {
	p := NewNtfy("http://localhost", "alerts", "")
	assert.Equal(t, "ntfy", p.Name())
}

func TestNtfySendCritical(t *testing.T) {
	var gotReq *http.Request
	var gotBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewNtfy(srv.URL, "weathermap", "")
	notif := model.Notification{
		AlertType: "device_unreachable",
		Severity:  "critical",
		Title:     "Device Unreachable: core-sw1",
		Message:   "core-sw1: fetching device: API error 500",
		Timestamp: time.Now(),
	}

	err := p.Send(context.Background(), notif)
	require.NoError(t, err)

	assert.Equal(t, "/weathermap", gotReq.URL.Path)
	assert.Equal(t, "Device Unreachable: core-sw1", gotReq.Header.Get("Title"))
	assert.Equal(t, "5", gotReq.Header.Get("Priority"))
	assert.Contains(t, gotReq.Header.Get("Tags"), "rotating_light")
	assert.Contains(t, gotReq.Header.Get("Tags"), "device_unreachable")
	assert.Equal(t, "core-sw1: fetching device: API error 500", gotBody)
}

func TestNtfySendWarning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.Header.Get("Priority"))
		assert.Contains(t, r.Header.Get("Tags"), "warning")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewNtfy(srv.URL, "weathermap", "")
	err := p.Send(context.Background(), model.Notification{
		Severity: "warning",
		Title:    "Link Saturated",
		Message:  "core:eth0 at 95% of scale",
	})
	require.NoError(t, err)
}

func TestNtfySendResolved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Tags"), "white_check_mark")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewNtfy(srv.URL, "weathermap", "")
	err := p.Send(context.Background(), model.Notification{
		Severity: "info",
		Title:    "Resolved",
		Message:  "All clear",
		Resolved: true,
	})
	require.NoError(t, err)
}

func TestNtfyClickHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "http://maps.example.net/", r.Header.Get("Click"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewNtfy(srv.URL, "weathermap", "http://maps.example.net/")
	err := p.Send(context.Background(), model.Notification{
		Severity: "warning",
		Title:    "Link Saturated",
		Message:  "core:eth0 -- edge:eth1 at 950 Mbit/s",
	})
	require.NoError(t, err)
}

func TestNtfyNoClickHeaderWithoutMapURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["Click"]
		assert.False(t, present)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewNtfy(srv.URL, "weathermap", "")
	err := p.Send(context.Background(), model.Notification{Severity: "info", Title: "Test", Message: "Test"})
	require.NoError(t, err)
}

func TestSeverityToNtfyPriorityUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.Header.Get("Priority"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewNtfy(srv.URL, "weathermap", "")
	err := p.Send(context.Background(), model.Notification{
		Severity: "unknown-severity",
		Title:    "Test",
		Message:  "Test",
	})
	require.NoError(t, err)
}

func TestNtfySendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewNtfy(srv.URL, "weathermap", "")
	err := p.Send(context.Background(), model.Notification{Severity: "info", Title: "Test", Message: "Test"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestNtfyTrailingSlash(t *testing.T) {
	p := NewNtfy("http://example.com/", "alerts", "")
	assert.Equal(t, "http://example.com", p.url)
}
