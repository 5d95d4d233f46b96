package qr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/skip2/go-qrcode"
)

// Renderer encodes text into a scannable PNG image.
type Renderer interface {
	Render(ctx context.Context, text string, opts Options) ([]byte, error)
}

// RenderError reports that text could not be turned into a QR image,
// typically because it exceeds the capacity of the requested level.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return "render qr: " + e.Err.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Encoder is the Renderer backed by skip2/go-qrcode.
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

var _ Renderer = (*Encoder)(nil)

// Render draws the symbol for text at exactly opts.Width pixels, with
// opts.Margin quiet-zone modules on each side.
func (e *Encoder) Render(ctx context.Context, text string, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Err: err}
	}
	if err := opts.Validate(); err != nil {
		return nil, &RenderError{Err: err}
	}

	level, _ := opts.Level.recovery()
	code, err := qrcode.New(text, level)
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	code.DisableBorder = true

	img, err := rasterize(code.Bitmap(), opts)
	if err != nil {
		return nil, &RenderError{Err: err}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &RenderError{Err: fmt.Errorf("encode png: %w", err)}
	}
	return buf.Bytes(), nil
}

func rasterize(bitmap [][]bool, opts Options) (*image.Paletted, error) {
	modules := len(bitmap)
	total := modules + 2*opts.Margin
	if opts.Width < total {
		return nil, fmt.Errorf("width %d is smaller than the %d modules of the symbol", opts.Width, total)
	}

	palette := color.Palette{opts.Background, opts.Foreground}
	img := image.NewPaletted(image.Rect(0, 0, opts.Width, opts.Width), palette)

	for y := 0; y < opts.Width; y++ {
		my := y*total/opts.Width - opts.Margin
		if my < 0 || my >= modules {
			continue
		}
		row := bitmap[my]
		for x := 0; x < opts.Width; x++ {
			mx := x*total/opts.Width - opts.Margin
			if mx >= 0 && mx < modules && row[mx] {
				img.SetColorIndex(x, y, 1)
			}
		}
	}
	return img, nil
}

// DataURL wraps PNG bytes in a data: URL suitable for an <img> src.
func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
