package inference

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPreprocessImage_PNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(40, 20, color.RGBA{R: 255, A: 255})); err != nil {
		t.Fatalf("encode: %v", err)
	}

	pixels, info, err := PreprocessImage(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Format != "png" || info.Width != 40 || info.Height != 20 {
		t.Errorf("unexpected info %+v", info)
	}
	if len(pixels) != ImageSize*ImageSize*3 {
		t.Fatalf("expected %d values, got %d", ImageSize*ImageSize*3, len(pixels))
	}
	for i := 0; i < len(pixels); i += 3 {
		if pixels[i] < 0.99 || pixels[i+1] > 0.01 || pixels[i+2] > 0.01 {
			t.Fatalf("pixel %d not red: %v", i/3, pixels[i:i+3])
		}
	}
}

func TestPreprocessImage_JPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solidImage(300, 300, color.Gray{Y: 128}), nil); err != nil {
		t.Fatalf("encode: %v", err)
	}

	pixels, info, err := PreprocessImage(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Format != "jpeg" {
		t.Errorf("expected jpeg, got %s", info.Format)
	}
	for _, v := range pixels {
		if v < 0 || v > 1 {
			t.Fatalf("value %v outside [0,1]", v)
		}
	}
}

func TestPreprocessImage_Unsupported(t *testing.T) {
	_, _, err := PreprocessImage(bytes.NewReader([]byte("definitely not an image")))
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("expected ErrUnsupportedImage, got %v", err)
	}
}

// pngChunk frames data as a PNG chunk with a valid CRC.
func pngChunk(typ string, data []byte) []byte {
	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(len(data)))
	out.WriteString(typ)
	out.Write(data)
	binary.Write(&out, binary.BigEndian, crc32.ChecksumIEEE(append([]byte(typ), data...)))
	return out.Bytes()
}

// headerOnlyPNG returns a grayscale PNG whose IHDR declares w x h but which
// carries almost no pixel data.
func headerOnlyPNG(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth; color type, compression, filter and interlace stay 0

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	buf.Write(pngChunk("IHDR", ihdr))
	buf.Write(pngChunk("IDAT", []byte{0x78, 0x9c, 0x03, 0x00}))
	buf.Write(pngChunk("IEND", nil))
	return buf.Bytes()
}

func TestPreprocessImage_OversizedHeader(t *testing.T) {
	data := headerOnlyPNG(16000, 16000)
	if len(data) > 100 {
		t.Fatalf("forged file should be tiny, got %d bytes", len(data))
	}
	_, _, err := PreprocessImage(bytes.NewReader(data))
	if !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestPreprocessImage_AtPixelCap(t *testing.T) {
	// Exactly at the cap passes the header check and fails later on the
	// missing pixel data, not on size.
	_, _, err := PreprocessImage(bytes.NewReader(headerOnlyPNG(4096, 4096)))
	if errors.Is(err, ErrImageTooLarge) {
		t.Fatal("4096x4096 must be accepted by the size check")
	}
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage, got %v", err)
	}
}

func TestPreprocessImage_Truncated(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	data := buf.Bytes()

	for _, n := range []int{len(data) / 2, 20} {
		_, _, err := PreprocessImage(bytes.NewReader(data[:n]))
		if !errors.Is(err, ErrInvalidImage) {
			t.Errorf("truncated to %d bytes: expected ErrInvalidImage, got %v", n, err)
		}
	}
}

func TestClassForIndex(t *testing.T) {
	classes := ParseClasses("High, Low ,Medium,,")
	if len(classes) != 3 {
		t.Fatalf("expected 3 classes, got %v", classes)
	}

	tests := []struct {
		idx     int64
		want    string
		wantErr bool
	}{
		{0, "High", false},
		{1, "Low", false},
		{2, "Medium", false},
		{3, "", true},
		{-1, "", true},
	}
	for _, tt := range tests {
		got, err := classForIndex(classes, tt.idx)
		if (err != nil) != tt.wantErr {
			t.Errorf("classForIndex(%d) error = %v, wantErr %v", tt.idx, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("classForIndex(%d) = %q, want %q", tt.idx, got, tt.want)
		}
	}
}
