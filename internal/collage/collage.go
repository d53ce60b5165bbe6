// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

// Package collage generates pack preview images by compositing member
// previews into a fixed grid. The output depends only on the member
// previews and their order, so regenerating a preview for unchanged
// members produces identical bytes.
package collage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// Cell dimensions match the 16:9 aspect of console screenshots.
	cellWidth  = 640
	cellHeight = 360

	columns = 2

	jpegQuality = 85
)

// Generate composites the given preview images into a two-column grid,
// in order, and returns the collage as JPEG bytes. Each preview is
// scaled to fill its cell. At least one preview is required; an odd
// count leaves the final cell black.
func Generate(previews [][]byte) ([]byte, error) {
	if len(previews) == 0 {
		return nil, fmt.Errorf("collage: no previews")
	}

	rows := (len(previews) + columns - 1) / columns
	canvas := image.NewRGBA(image.Rect(0, 0, cellWidth*columns, cellHeight*rows))

	for i, data := range previews {
		src, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("collage: decode preview %d: %w", i, err)
		}

		col := i % columns
		row := i / columns
		cell := image.Rect(
			col*cellWidth, row*cellHeight,
			(col+1)*cellWidth, (row+1)*cellHeight,
		)
		draw.CatmullRom.Scale(canvas, cell, src, src.Bounds(), draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("collage: encode: %w", err)
	}
	return buf.Bytes(), nil
}
