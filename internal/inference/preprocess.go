package inference

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

const (
	ImageSize = 150
	// MaxImagePixels caps width*height as declared by the image header.
	MaxImagePixels = 4096 * 4096
)

var (
	ErrUnsupportedImage = errors.New("unsupported image: expected PNG or JPEG")
	ErrInvalidImage     = errors.New("image is corrupt or truncated")
	ErrImageTooLarge    = errors.New("image dimensions exceed 4096x4096 pixels")
)

// ImageInfo describes the decoded upload before resizing.
type ImageInfo struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// PreprocessImage decodes a PNG or JPEG, converts it to RGB, resizes it to
// 150x150 with bilinear interpolation and scales channels to [0,1]. The
// result is laid out HWC as the model expects.
//
// The header is checked before the pixel data is decoded, so a forged size
// never reaches the decoder's allocation.
func PreprocessImage(r io.Reader) ([]float32, ImageInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ImageInfo{}, fmt.Errorf("read image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ImageInfo{}, decodeError(err)
	}
	if format != "png" && format != "jpeg" {
		return nil, ImageInfo{}, ErrUnsupportedImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ImageInfo{}, ErrInvalidImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, ImageInfo{}, fmt.Errorf("%w: got %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ImageInfo{}, decodeError(err)
	}
	b := src.Bounds()
	info := ImageInfo{Format: format, Width: b.Dx(), Height: b.Dy()}

	dst := image.NewRGBA(image.Rect(0, 0, ImageSize, ImageSize))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	pixels := make([]float32, 0, ImageSize*ImageSize*3)
	for y := 0; y < ImageSize; y++ {
		for x := 0; x < ImageSize; x++ {
			off := dst.PixOffset(x, y)
			pixels = append(pixels,
				float32(dst.Pix[off])/255,
				float32(dst.Pix[off+1])/255,
				float32(dst.Pix[off+2])/255,
			)
		}
	}
	return pixels, info, nil
}

func decodeError(err error) error {
	if errors.Is(err, image.ErrFormat) {
		return ErrUnsupportedImage
	}
	return fmt.Errorf("%w: %v", ErrInvalidImage, err)
}
