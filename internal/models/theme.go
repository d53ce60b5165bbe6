// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Target names the home-menu applet a theme skins.
type Target string

const (
	TargetResidentMenu Target = "ResidentMenu"
	TargetEntrance     Target = "Entrance"
	TargetFlaunch      Target = "Flaunch"
	TargetSet          Target = "Set"
	TargetPsl          Target = "Psl"
	TargetMyPage       Target = "MyPage"
	TargetNotification Target = "Notification"
)

// Valid reports whether t is a known target.
func (t Target) Valid() bool {
	switch t {
	case TargetResidentMenu, TargetEntrance, TargetFlaunch, TargetSet,
		TargetPsl, TargetMyPage, TargetNotification:
		return true
	}
	return false
}

// ThemeSlots is the fixed set of asset slots a theme may fill.
// "image" is the background; the rest are menu icon overrides.
var ThemeSlots = []string{
	"image",
	"home-icon",
	"album-icon",
	"news-icon",
	"shop-icon",
	"controller-icon",
	"settings-icon",
	"power-icon",
}

// HBThemeSlots is the fixed set of asset slots an hbtheme may fill.
var HBThemeSlots = []string{
	"image",
	"icon",
	"battery-icon",
	"charging-icon",
	"folder-icon",
	"invalid-icon",
	"theme-icon-dark",
	"theme-icon-light",
}

// Theme is a visual customization for a single target, assembled into a
// distributable archive on download. A theme references either a shared
// layout (LayoutID) or carries its own custom layout JSON, never both.
type Theme struct {
	ID                     string    `json:"id"`
	CreatorID              string    `json:"creator_id"`
	Name                   string    `json:"name"`
	Description            *string   `json:"description,omitempty"`
	Target                 Target    `json:"target"`
	IsNSFW                 bool      `json:"is_nsfw"`
	IsPrivate              bool      `json:"is_private"`
	LayoutID               *string   `json:"layout_id,omitempty"`
	PackID                 *string   `json:"pack_id,omitempty"`
	CustomLayoutJSON       *string   `json:"-"`
	CustomCommonLayoutJSON *string   `json:"-"`
	PreviewFilename        *string   `json:"preview_filename,omitempty"`
	DownloadCount          int64     `json:"download_count"`
	Added                  time.Time `json:"added"`
	Updated                time.Time `json:"updated"`

	// Populated by store joins where requested.
	Tags    []Tag         `json:"tags,omitempty"`
	Assets  []Asset       `json:"assets,omitempty"`
	Options []ThemeOption `json:"options,omitempty"`
}

// HasCustomLayout reports whether the theme carries its own layout JSON.
func (t *Theme) HasCustomLayout() bool {
	return t.CustomLayoutJSON != nil || t.CustomCommonLayoutJSON != nil
}

// ThemeOption is a per-option variable value selected for a theme.
// The value is stored as a single canonical string and only parsed when
// building the layout, so a later option type change cannot corrupt it.
type ThemeOption struct {
	ThemeID   string    `json:"-"`
	ValueUUID uuid.UUID `json:"uuid"`
	Variable  string    `json:"variable"`
}

// HBTheme is a homebrew-menu customization. Unlike themes it has no
// shared layout reference; its layout JSON, when present, is its own.
type HBTheme struct {
	ID              string    `json:"id"`
	CreatorID       string    `json:"creator_id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	IsNSFW          bool      `json:"is_nsfw"`
	IsPrivate       bool      `json:"is_private"`
	PackID          *string   `json:"pack_id,omitempty"`
	LayoutJSON      *string   `json:"-"`
	PreviewFilename *string   `json:"preview_filename,omitempty"`
	DownloadCount   int64     `json:"download_count"`
	Added           time.Time `json:"added"`
	Updated         time.Time `json:"updated"`

	Tags   []Tag   `json:"tags,omitempty"`
	Assets []Asset `json:"assets,omitempty"`
}
