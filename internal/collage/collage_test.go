package collage

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func solidPreview(t *testing.T, c color.Color, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1280, 720))
	for y := 0; y < 720; y++ {
		for x := 0; x < 1280; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		t.Fatalf("encode preview: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(buf *bytes.Buffer, img image.Image) error {
	return jpeg.Encode(buf, img, nil)
}

func encodePNG(buf *bytes.Buffer, img image.Image) error {
	return png.Encode(buf, img)
}

func TestGenerateGrid(t *testing.T) {
	previews := [][]byte{
		solidPreview(t, color.RGBA{R: 200, A: 255}, encodeJPEG),
		solidPreview(t, color.RGBA{G: 200, A: 255}, encodeJPEG),
		solidPreview(t, color.RGBA{B: 200, A: 255}, encodeJPEG),
	}

	out, err := Generate(previews)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode collage: %v", err)
	}
	// Three members yield a 2x2 grid with one empty cell.
	if b := img.Bounds(); b.Dx() != cellWidth*2 || b.Dy() != cellHeight*2 {
		t.Errorf("collage size = %dx%d, want %dx%d", b.Dx(), b.Dy(), cellWidth*2, cellHeight*2)
	}

	// Spot-check cell colors survive scaling and re-encoding.
	r, _, _, _ := img.At(cellWidth/2, cellHeight/2).RGBA()
	if r>>8 < 150 {
		t.Errorf("first cell is not red: r=%d", r>>8)
	}
	_, g, _, _ := img.At(cellWidth+cellWidth/2, cellHeight/2).RGBA()
	if g>>8 < 150 {
		t.Errorf("second cell is not green: g=%d", g>>8)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	previews := [][]byte{
		solidPreview(t, color.RGBA{R: 120, G: 40, A: 255}, encodeJPEG),
		solidPreview(t, color.RGBA{B: 90, A: 255}, encodePNG),
	}

	first, err := Generate(previews)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	second, err := Generate(previews)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("collage bytes differ between identical inputs")
	}
}

func TestGenerateEmpty(t *testing.T) {
	if _, err := Generate(nil); err == nil {
		t.Fatal("expected error for empty preview list")
	}
}

func TestGenerateBadImage(t *testing.T) {
	if _, err := Generate([][]byte{[]byte("not an image")}); err == nil {
		t.Fatal("expected error for undecodable preview")
	}
}
