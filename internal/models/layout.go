// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Layout is a shared, reusable menu layout themes can reference instead
// of carrying their own layout JSON. Revision bumps on every body change
// so dependent themes' content hashes change with it.
type Layout struct {
	ID         string    `json:"id"`
	CreatorID  string    `json:"creator_id"`
	Name       string    `json:"name"`
	Target     Target    `json:"target"`
	JSON       string    `json:"-"`
	CommonJSON *string   `json:"-"`
	Revision   int       `json:"revision"`
	Added      time.Time `json:"added"`
	Updated    time.Time `json:"updated"`
}

// OptionType is the declared value type of a layout option.
type OptionType string

const (
	OptionInteger OptionType = "integer"
	OptionDecimal OptionType = "decimal"
	OptionString  OptionType = "string"
	OptionColor   OptionType = "color"
)

// Valid reports whether t is a known option type.
func (t OptionType) Valid() bool {
	switch t {
	case OptionInteger, OptionDecimal, OptionString, OptionColor:
		return true
	}
	return false
}

// LayoutOption is a tweakable value a layout exposes. Each option value is
// addressed by a stable UUID; themes store their chosen value against it.
type LayoutOption struct {
	ValueUUID uuid.UUID  `json:"uuid"`
	LayoutID  string     `json:"layout_id"`
	Name      string     `json:"name"`
	Type      OptionType `json:"type"`
}

// LayoutPiece is an optional layout fragment selectable per download.
// Pieces live inside the layout JSON body; this record only carries the
// piece identity used in variant selectors.
type LayoutPiece struct {
	UUID uuid.UUID `json:"uuid"`
	Name string    `json:"name"`
}
