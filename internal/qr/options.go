package qr

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
)

// Level is a QR error correction level.
type Level string

const (
	LevelLow      Level = "L"
	LevelMedium   Level = "M"
	LevelQuartile Level = "Q"
	LevelHigh     Level = "H"
)

func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, err := l.recovery(); err != nil {
		return "", err
	}
	return l, nil
}

func (l Level) recovery() (qrcode.RecoveryLevel, error) {
	switch l {
	case LevelLow:
		return qrcode.Low, nil
	case LevelMedium:
		return qrcode.Medium, nil
	case LevelQuartile:
		return qrcode.High, nil
	case LevelHigh:
		return qrcode.Highest, nil
	}
	return 0, fmt.Errorf("unknown error correction level %q", string(l))
}

// Options controls the raster produced by a Renderer.
type Options struct {
	// Width is the edge length of the square image in pixels.
	Width int
	// Margin is the quiet zone around the symbol, in modules.
	Margin     int
	Foreground color.Color
	Background color.Color
	Level      Level
}

func DefaultOptions() Options {
	return Options{
		Width:      300,
		Margin:     2,
		Foreground: color.Black,
		Background: color.White,
		Level:      LevelMedium,
	}
}

func (o Options) Validate() error {
	if o.Width <= 0 {
		return fmt.Errorf("width must be positive, got %d", o.Width)
	}
	if o.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %d", o.Margin)
	}
	if o.Foreground == nil || o.Background == nil {
		return fmt.Errorf("foreground and background colors are required")
	}
	if _, err := o.Level.recovery(); err != nil {
		return err
	}
	return nil
}

func (o Options) key() string {
	fr, fg, fb, fa := o.Foreground.RGBA()
	br, bg, bb, ba := o.Background.RGBA()
	return fmt.Sprintf("%d/%d/%s/%04x%04x%04x%04x/%04x%04x%04x%04x", o.Width, o.Margin, o.Level, fr, fg, fb, fa, br, bg, bb, ba)
}

// ParseHexColor parses #rgb, #rgba, #rrggbb and #rrggbbaa.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")

	switch len(hex) {
	case 3, 4:
		var expanded strings.Builder
		for _, c := range hex {
			expanded.WriteRune(c)
			expanded.WriteRune(c)
		}
		hex = expanded.String()
	case 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}

	if len(hex) == 6 {
		hex += "ff"
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}

	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
