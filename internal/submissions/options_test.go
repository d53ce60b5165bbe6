// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package submissions

import (
	"testing"

	"themehub/internal/models"
)

func TestEncodeOptionValue(t *testing.T) {
	tests := []struct {
		name    string
		typ     models.OptionType
		raw     string
		want    string
		wantErr bool
	}{
		{"integer", models.OptionInteger, "42", "42", false},
		{"integer negative", models.OptionInteger, "-7", "-7", false},
		{"integer junk", models.OptionInteger, "4.2", "", true},
		{"integer empty", models.OptionInteger, "", "", true},

		// Decimals carry exactly 8 significant digits, trailing
		// zeros included.
		{"decimal", models.OptionDecimal, "1.5", "1.5000000", false},
		{"decimal long", models.OptionDecimal, "0.123456789123", "0.12345679", false},
		{"decimal integer form", models.OptionDecimal, "3", "3.0000000", false},
		{"decimal tens", models.OptionDecimal, "10", "10.000000", false},
		{"decimal zero", models.OptionDecimal, "0", "0.0000000", false},
		{"decimal tiny", models.OptionDecimal, "0.0000001234", "1.2340000e-7", false},
		{"decimal junk", models.OptionDecimal, "one", "", true},

		{"string", models.OptionString, "hello", "hello", false},
		{"string empty", models.OptionString, "", "", true},

		{"color rgb", models.OptionColor, "#FFAA00", "#ffaa00", false},
		{"color rgba", models.OptionColor, "#ffaa00CC", "#ffaa00cc", false},
		{"color no hash", models.OptionColor, "ffaa00", "", true},
		{"color short", models.OptionColor, "#fff", "", true},
		{"color junk", models.OptionColor, "#zzzzzz", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeOptionValue(tt.typ, tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("EncodeOptionValue(%q) = %q, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("EncodeOptionValue(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("EncodeOptionValue(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestEncodeOptionValueUnknownType(t *testing.T) {
	if _, err := EncodeOptionValue(models.OptionType("enum"), "x"); err == nil {
		t.Fatal("expected error for unknown option type")
	}
}
