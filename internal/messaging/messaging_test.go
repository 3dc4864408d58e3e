package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendText(t *testing.T) {
	var got proxyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/message" {
			t.Errorf("path %s, want /message", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "venue-main")
	if err := client.SendText(context.Background(), "sub-1", "Your table is ready"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.Service != "venue-main" || got.SubscriberID != "sub-1" || got.Action != "send_text" {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Text != "Your table is ready" {
		t.Fatalf("text %q", got.Text)
	}
}

func TestRejectedSendIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "unknown subscriber"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "venue-main")
	if err := client.SendText(context.Background(), "sub-x", "hi"); err == nil {
		t.Fatal("expected error for rejected send")
	}
}

func TestNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "venue-main")
	if err := client.TriggerFlow(context.Background(), "sub-1", "flow-9"); err == nil {
		t.Fatal("expected error for proxy failure")
	}
}
