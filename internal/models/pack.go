// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package models

import "time"

// Pack is an ordered collection of themes and hbthemes distributed as one
// unit. Its NSFW flag is persisted and recomputed as the OR of its
// members' flags whenever membership or a member flag changes. A pack
// with fewer than 2 members is never left standing; it is deleted in the
// same transaction that dropped it below the minimum.
type Pack struct {
	ID              string    `json:"id"`
	CreatorID       string    `json:"creator_id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	IsNSFW          bool      `json:"is_nsfw"`
	IsPrivate       bool      `json:"is_private"`
	PreviewFilename *string   `json:"preview_filename,omitempty"`
	PreviewCustom   bool      `json:"preview_custom"`
	DownloadCount   int64     `json:"download_count"`
	Added           time.Time `json:"added"`
	Updated         time.Time `json:"updated"`

	// Populated by store joins where requested. Member order is the
	// insertion order (counter ascending), which is also the collage order.
	Themes   []Theme   `json:"themes,omitempty"`
	HBThemes []HBTheme `json:"hbthemes,omitempty"`
}

// MemberCount returns the number of loaded member items.
func (p *Pack) MemberCount() int {
	return len(p.Themes) + len(p.HBThemes)
}

// MinPackMembers is the smallest member count a pack may have.
const MinPackMembers = 2
