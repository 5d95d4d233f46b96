package card

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"github.com/joshu-sajeev/upiqr/internal/config"
	"github.com/joshu-sajeev/upiqr/internal/dto"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	ErrEmptyCard         = errors.New("card has no qr image")
	ErrInvalidPixelRatio = errors.New("pixel ratio must be positive")
)

// ExportError reports that a card could not be rasterized.
type ExportError struct {
	Err error
}

func (e *ExportError) Error() string {
	return "export card: " + e.Err.Error()
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Card is the payment-detail region shown next to a generated QR code.
type Card struct {
	QR     []byte
	Fields dto.FormFields
}

type Options struct {
	Background color.Color
	Foreground color.Color
	PixelRatio float64
}

func DefaultOptions() Options {
	return Options{
		Background: color.White,
		Foreground: color.Black,
		PixelRatio: 2,
	}
}

// Exporter rasterizes a card into an image file.
type Exporter interface {
	Export(ctx context.Context, c Card, opts Options) ([]byte, error)
}

const (
	padding    = 24
	gap        = 16
	lineHeight = 18
	minWidth   = 280
	fontSize   = 13
)

var goRegular = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// PNGExporter draws cards in Go Regular, which covers Latin, Greek and
// Cyrillic. Scripts outside that set (Devanagari, the rupee sign) render
// as the font's missing-glyph box.
type PNGExporter struct {
	font *opentype.Font
}

func NewPNGExporter() *PNGExporter {
	f, _ := goRegular()
	return &PNGExporter{font: f}
}

// newFace returns a face for one export; opentype faces are not safe for
// concurrent use. Without a parsed font it falls back to basicfont.
func (e *PNGExporter) newFace() font.Face {
	if e.font != nil {
		face, err := opentype.NewFace(e.font, &opentype.FaceOptions{
			Size:    fontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			return face
		}
	}
	return basicfont.Face7x13
}

var _ Exporter = (*PNGExporter)(nil)

func (e *PNGExporter) Export(ctx context.Context, c Card, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ExportError{Err: err}
	}
	if len(c.QR) == 0 {
		return nil, &ExportError{Err: ErrEmptyCard}
	}
	if opts.PixelRatio <= 0 {
		return nil, &ExportError{Err: ErrInvalidPixelRatio}
	}
	if opts.Background == nil {
		opts.Background = color.White
	}
	if opts.Foreground == nil {
		opts.Foreground = color.Black
	}

	qrImg, err := png.Decode(bytes.NewReader(c.QR))
	if err != nil {
		return nil, &ExportError{Err: fmt.Errorf("decode qr image: %w", err)}
	}

	face := e.newFace()
	defer face.Close()

	qrBounds := qrImg.Bounds()
	textWidth := max(qrBounds.Dx(), minWidth)
	lines := wrapLines(face, Lines(c.Fields), textWidth)

	width := textWidth + 2*padding
	height := padding + qrBounds.Dy() + gap + len(lines)*lineHeight + padding

	base := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(base, base.Bounds(), image.NewUniform(opts.Background), image.Point{}, xdraw.Src)

	qrAt := image.Pt((width-qrBounds.Dx())/2, padding)
	xdraw.Draw(base, qrBounds.Sub(qrBounds.Min).Add(qrAt), qrImg, qrBounds.Min, xdraw.Over)

	d := &font.Drawer{Dst: base, Src: image.NewUniform(opts.Foreground), Face: face}
	baseline := padding + qrBounds.Dy() + gap + face.Metrics().Ascent.Ceil()
	for i, line := range lines {
		lw := d.MeasureString(line).Ceil()
		d.Dot = fixed.P((width-lw)/2, baseline+i*lineHeight)
		d.DrawString(line)
	}

	out := image.Image(base)
	if opts.PixelRatio != 1 {
		sw := int(float64(width)*opts.PixelRatio + 0.5)
		sh := int(float64(height)*opts.PixelRatio + 0.5)
		if sw < 1 || sh < 1 {
			return nil, &ExportError{Err: ErrInvalidPixelRatio}
		}
		scaled := image.NewRGBA(image.Rect(0, 0, sw, sh))
		xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), base, base.Bounds(), xdraw.Src, nil)
		out = scaled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, &ExportError{Err: fmt.Errorf("encode png: %w", err)}
	}
	return buf.Bytes(), nil
}

// Lines returns the text rows printed under the QR code. Empty optional
// fields are left out.
func Lines(f dto.FormFields) []string {
	f = f.Trimmed()

	var lines []string
	if f.PayeeName != "" {
		lines = append(lines, "Pay "+f.PayeeName)
	}
	lines = append(lines, "UPI ID: "+f.PayeeID)
	if f.Amount != "" {
		lines = append(lines, "Amount: "+config.Currency+" "+f.Amount)
	}
	if f.Note != "" {
		lines = append(lines, "Note: "+f.Note)
	}
	return lines
}

func wrapLines(face font.Face, lines []string, width int) []string {
	var out []string
	for _, line := range lines {
		out = append(out, wrap(face, line, width)...)
	}
	return out
}

// wrap breaks s on spaces so that each row fits in width pixels. Words
// wider than a row are split.
func wrap(face font.Face, s string, width int) []string {
	fits := func(s string) bool { return font.MeasureString(face, s).Ceil() <= width }

	var rows []string
	var row string
	for _, word := range strings.Fields(s) {
		candidate := word
		if row != "" {
			candidate = row + " " + word
		}
		if fits(candidate) {
			row = candidate
			continue
		}
		if row != "" {
			rows = append(rows, row)
			row = ""
		}
		for !fits(word) {
			runes := []rune(word)
			n := len(runes)
			for n > 1 && !fits(string(runes[:n])) {
				n--
			}
			rows = append(rows, string(runes[:n]))
			word = string(runes[n:])
		}
		row = word
	}
	if row != "" {
		rows = append(rows, row)
	}
	return rows
}
