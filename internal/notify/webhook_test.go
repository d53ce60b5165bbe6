// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNotifierSend(t *testing.T) {
	received := make(chan Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var e Event
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			t.Errorf("decode: %v", err)
		}
		received <- e
	}))
	defer srv.Close()

	n := New(srv.URL)
	n.Send(context.Background(), Event{Kind: KindSubmitted, ItemID: "t1a", ItemName: "Dark"})

	e := <-received
	if e.Kind != KindSubmitted || e.ItemID != "t1a" {
		t.Errorf("event = %+v", e)
	}
	if e.At.IsZero() {
		t.Error("timestamp not filled in")
	}
}

func TestNotifierNil(t *testing.T) {
	if n := New(""); n != nil {
		t.Fatal("New with empty url should return nil")
	}
	// Sending through nil must not panic.
	var n *Notifier
	n.Send(context.Background(), Event{Kind: KindDeleted})
}

func TestNotifierServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Errors are swallowed; Send never panics or blocks.
	New(srv.URL).Send(context.Background(), Event{Kind: KindUpdated})
}
