// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

// Package notify delivers best-effort event notifications to an
// external webhook. Delivery runs after the triggering transaction has
// committed and failures are logged, never surfaced to the request.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Event is one notification payload.
type Event struct {
	Kind      string    `json:"kind"`
	ItemID    string    `json:"item_id,omitempty"`
	ItemName  string    `json:"item_name,omitempty"`
	CreatorID string    `json:"creator_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

// Event kinds.
const (
	KindSubmitted  = "submitted"
	KindUpdated    = "updated"
	KindDeleted    = "deleted"
	KindHidden     = "hidden"
	KindPackBroken = "pack_broken"
)

// Notifier posts events to a webhook URL. A nil *Notifier is valid and
// drops everything, so callers need no guard when no webhook is set.
type Notifier struct {
	url    string
	client *http.Client
}

// New returns a Notifier for the given webhook URL, or nil when the URL
// is empty.
func New(url string) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers one event. It never blocks the caller beyond the
// client timeout and never returns an error; delivery is best-effort.
func (n *Notifier) Send(ctx context.Context, e Event) {
	if n == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	body, err := json.Marshal(e)
	if err != nil {
		slog.Warn("webhook marshal failed", "kind", e.Kind, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		slog.Warn("webhook request failed", "kind", e.Kind, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		slog.Warn("webhook delivery failed", "kind", e.Kind, "error", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		slog.Warn("webhook rejected", "kind", e.Kind, "status", resp.StatusCode)
	}
}
