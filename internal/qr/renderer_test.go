package qr

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLink = "upi://pay?pa=alice%40bank&pn=Alice&am=500&cu=INR&tn=Invoice%201"

func TestEncoder_Render(t *testing.T) {
	opts := DefaultOptions()

	data, err := NewEncoder().Render(context.Background(), sampleLink, opts)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())

	code, err := qrcode.New(sampleLink, qrcode.Medium)
	require.NoError(t, err)
	code.DisableBorder = true
	total := len(code.Bitmap()) + 2*opts.Margin

	// The quiet zone is background, the first module of the symbol is the
	// dark corner of a finder pattern.
	assertColor(t, color.White, img.At(0, 0))
	center := (2*opts.Margin + 1) * opts.Width / (2 * total)
	assertColor(t, color.Black, img.At(center, center))
}

func TestEncoder_RenderIsDeterministic(t *testing.T) {
	enc := NewEncoder()
	a, err := enc.Render(context.Background(), sampleLink, DefaultOptions())
	require.NoError(t, err)
	b, err := enc.Render(context.Background(), sampleLink, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncoder_CustomColors(t *testing.T) {
	fg, err := ParseHexColor("#1a73e8")
	require.NoError(t, err)
	bg, err := ParseHexColor("#fff")
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Foreground, opts.Background, opts.Margin = fg, bg, 0

	data, err := NewEncoder().Render(context.Background(), sampleLink, opts)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	// Without a margin the top-left pixel belongs to a finder pattern.
	assertColor(t, fg, img.At(0, 0))
}

func TestEncoder_RenderErrors(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tooSmall := DefaultOptions()
	tooSmall.Width = 10

	badLevel := DefaultOptions()
	badLevel.Level = "Z"

	tests := []struct {
		name string
		ctx  context.Context
		text string
		opts Options
	}{
		{name: "text over capacity", ctx: context.Background(), text: strings.Repeat("x", 3000), opts: DefaultOptions()},
		{name: "width below module count", ctx: context.Background(), text: sampleLink, opts: tooSmall},
		{name: "unknown level", ctx: context.Background(), text: sampleLink, opts: badLevel},
		{name: "canceled context", ctx: canceled, text: sampleLink, opts: DefaultOptions()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEncoder().Render(tt.ctx, tt.text, tt.opts)
			require.Error(t, err)

			var renderErr *RenderError
			assert.True(t, errors.As(err, &renderErr))
		})
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel(" q ")
	require.NoError(t, err)
	assert.Equal(t, LevelQuartile, l)

	_, err = ParseLevel("X")
	assert.Error(t, err)
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{in: "#000000", want: color.NRGBA{0, 0, 0, 255}},
		{in: "#FFFFFF", want: color.NRGBA{255, 255, 255, 255}},
		{in: "#fa0", want: color.NRGBA{255, 170, 0, 255}},
		{in: "#11223380", want: color.NRGBA{0x11, 0x22, 0x33, 0x80}},
		{in: "#abcd", want: color.NRGBA{0xaa, 0xbb, 0xcc, 0xdd}},
		{in: "red", wantErr: true},
		{in: "#12345", wantErr: true},
		{in: "#gggggg", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDataURL(t *testing.T) {
	url := DataURL([]byte{0x89, 'P', 'N', 'G'})
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw)
}

func assertColor(t *testing.T, want, got color.Color) {
	t.Helper()
	wr, wg, wb, wa := want.RGBA()
	gr, gg, gb, ga := got.RGBA()
	assert.Equal(t, [4]uint32{wr, wg, wb, wa}, [4]uint32{gr, gg, gb, ga})
}
