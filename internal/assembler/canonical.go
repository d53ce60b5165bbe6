// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package assembler

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// CanonicalHash digests every component that can change the assembled
// artifact's bytes into an opaque hex string. Callers only ever compare
// two hashes for equality; the serialization below is internal and may
// change between releases (changing it invalidates all cache entries,
// which is safe).
func CanonicalHash(c *Components) string {
	var b strings.Builder

	fmt.Fprintf(&b, "category=%s\n", c.Category)
	fmt.Fprintf(&b, "id=%s\n", c.ID)
	fmt.Fprintf(&b, "name=%s\n", c.Name)
	fmt.Fprintf(&b, "target=%s\n", c.Target)

	if c.LayoutID != nil {
		fmt.Fprintf(&b, "layout=%s@%d\n", *c.LayoutID, c.LayoutRevision)
	}
	if c.CustomLayoutJSON != nil {
		fmt.Fprintf(&b, "custom-layout=%s\n", digest(*c.CustomLayoutJSON))
	}
	if c.CustomCommonLayoutJSON != nil {
		fmt.Fprintf(&b, "custom-common-layout=%s\n", digest(*c.CustomCommonLayoutJSON))
	}

	slots := make([]string, 0, len(c.Assets))
	bySlot := make(map[string]string, len(c.Assets))
	for _, a := range c.Assets {
		slots = append(slots, a.Slot)
		bySlot[a.Slot] = a.FileHash
	}
	sort.Strings(slots)
	for _, slot := range slots {
		fmt.Fprintf(&b, "asset:%s=%s\n", slot, bySlot[slot])
	}

	opts := make([]string, 0, len(c.Options))
	for _, o := range c.Options {
		opts = append(opts, fmt.Sprintf("option:%s=%s\n", o.ValueUUID, o.Variable))
	}
	sort.Strings(opts)
	for _, o := range opts {
		b.WriteString(o)
	}

	return digest(b.String())
}

// PackHash digests a pack's identity from its members' content hashes,
// in member order. Any member content change or membership change
// changes the pack hash.
func PackHash(packName string, memberHashes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "pack=%s\n", packName)
	for _, h := range memberHashes {
		fmt.Fprintf(&b, "member=%s\n", h)
	}
	return digest(b.String())
}

// digest returns the lowercase hex blake3 sum of s.
func digest(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
