// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package submissions

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"themehub/internal/models"
)

// decimalPrecision is the significant-digit count decimal option values
// are canonicalized to before storage.
const decimalPrecision = 8

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}([0-9a-fA-F]{2})?$`)

// optionEncoders maps each declared option type to its validate-and-
// canonicalize function. Values are stored as the canonical string and
// substituted verbatim into layout JSON at build time, so two
// submissions of the same logical value must encode identically.
var optionEncoders = map[models.OptionType]func(string) (string, error){
	models.OptionInteger: encodeInteger,
	models.OptionDecimal: encodeDecimal,
	models.OptionString:  encodeString,
	models.OptionColor:   encodeColor,
}

// EncodeOptionValue canonicalizes a raw option value against its
// declared type.
func EncodeOptionValue(t models.OptionType, raw string) (string, error) {
	encode, ok := optionEncoders[t]
	if !ok {
		return "", fmt.Errorf("unknown option type %q", t)
	}
	return encode(raw)
}

func encodeInteger(raw string) (string, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return "", fmt.Errorf("not an integer: %q", raw)
	}
	return strconv.FormatInt(v, 10), nil
}

func encodeDecimal(raw string) (string, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", fmt.Errorf("not a decimal: %q", raw)
	}
	return formatDecimal(v), nil
}

// formatDecimal renders v with exactly decimalPrecision significant
// digits, trailing zeros kept. Fixed notation while the decimal
// exponent fits, exponent form outside that range.
func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'e', decimalPrecision-1, 64)
	mant, expStr, _ := strings.Cut(s, "e")
	exp, _ := strconv.Atoi(expStr)
	if exp >= decimalPrecision || exp < -6 {
		return fmt.Sprintf("%se%+d", mant, exp)
	}
	return strconv.FormatFloat(v, 'f', decimalPrecision-1-exp, 64)
}

func encodeString(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("empty string value")
	}
	return raw, nil
}

func encodeColor(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !colorPattern.MatchString(raw) {
		return "", fmt.Errorf("not a hex color: %q", raw)
	}
	return strings.ToLower(raw), nil
}
