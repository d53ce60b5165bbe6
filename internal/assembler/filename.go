// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package assembler

import (
	"regexp"
	"strings"
)

var (
	// invalidFilenameChars matches characters that are unsafe in
	// download filenames across platforms.
	invalidFilenameChars = regexp.MustCompile(`[\\~#*{}/:<>?|"]`)
	// whitespaceRun collapses consecutive whitespace into one underscore.
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// SafeName converts an item name into a filename-safe token.
// Example: "My Theme: Dark/Light" → "My_Theme_Dark_Light"
func SafeName(name string) string {
	s := invalidFilenameChars.ReplaceAllString(strings.TrimSpace(name), " ")
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "_")
	if s == "" {
		return "theme"
	}
	return s
}
