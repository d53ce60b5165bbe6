// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

// Package hexid implements the public id scheme for downloadable items.
//
// Every item table carries an integer counter and a stored generated column
// id = to_hex(counter). The database-level id is therefore a compact
// lowercase hex string that is unique within its table and never reused.
// Public-facing ids additionally carry a one-letter category prefix:
// "t" for themes, "h" for hbthemes, "p" for packs.
package hexid

import (
	"fmt"
	"regexp"
)

// Category names a downloadable item table.
type Category string

const (
	Themes   Category = "themes"
	HBThemes Category = "hbthemes"
	Packs    Category = "packs"
)

// prefix maps categories to their public id prefix letters.
var prefix = map[Category]byte{
	Themes:   't',
	HBThemes: 'h',
	Packs:    'p',
}

var publicIDRe = regexp.MustCompile(`^[thp][0-9a-f]+$`)

// Valid reports whether c is a known item category.
func (c Category) Valid() bool {
	_, ok := prefix[c]
	return ok
}

// Public formats a database hex id as a public id for the given category.
func Public(c Category, id string) string {
	return string(prefix[c]) + id
}

// Parse splits a public id into its category and database hex id.
// It returns an error for malformed ids or unknown prefixes.
func Parse(publicID string) (Category, string, error) {
	if !publicIDRe.MatchString(publicID) {
		return "", "", fmt.Errorf("malformed item id %q", publicID)
	}
	var c Category
	switch publicID[0] {
	case 't':
		c = Themes
	case 'h':
		c = HBThemes
	case 'p':
		c = Packs
	}
	return c, publicID[1:], nil
}

// ParseAs parses a public id and verifies it belongs to the wanted category.
func ParseAs(publicID string, want Category) (string, error) {
	c, id, err := Parse(publicID)
	if err != nil {
		return "", err
	}
	if c != want {
		return "", fmt.Errorf("item id %q is not a %s id", publicID, want)
	}
	return id, nil
}
