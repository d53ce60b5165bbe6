// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package assembler

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// resolveLayout produces the final layout JSON body for the artifact:
// the theme's custom layout when present, otherwise the referenced
// shared layout's body, with option variables substituted and the
// variant's piece selection applied. Returns "" when the theme has no
// layout source at all.
func resolveLayout(c *Components, v Variant) (string, error) {
	body := ""
	switch {
	case c.CustomLayoutJSON != nil:
		body = *c.CustomLayoutJSON
	case c.LayoutID != nil:
		body = c.LayoutJSON
	default:
		return "", nil
	}

	// Option values are stored as canonical strings and injected by
	// placeholder token; the layout author writes %<value-uuid>% where
	// the variable belongs.
	for _, o := range c.Options {
		body = strings.ReplaceAll(body, "%"+o.ValueUUID.String()+"%", o.Variable)
	}

	if len(v.Pieces) == 0 {
		return body, nil
	}
	return applyPieces(body, v.Pieces)
}

// applyPieces filters the layout document's Pieces array down to the
// selected uuids and records the selection under AppliedPieces. The
// document is re-marshaled with encoding/json, whose sorted map keys
// keep the output deterministic for a given selection.
func applyPieces(body string, pieces []string) (string, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return "", fmt.Errorf("parse layout json: %w", err)
	}

	selected := make(map[string]bool, len(pieces))
	for _, p := range pieces {
		selected[p] = true
	}

	if raw, ok := doc["Pieces"].([]any); ok {
		var kept []any
		for _, entry := range raw {
			piece, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if uuid, _ := piece["UUID"].(string); selected[uuid] {
				kept = append(kept, piece)
			}
		}
		doc["Pieces"] = kept
	}

	applied := append([]string(nil), pieces...)
	sort.Strings(applied)
	doc["AppliedPieces"] = applied

	out, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal layout json: %w", err)
	}
	return string(out), nil
}
