package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// RenderOptions controls debug rendering of a grid.
type RenderOptions struct {
	// Scale is the number of output pixels per bin along each axis. Default 1.
	Scale int

	// GridSpacing draws bin grid lines every GridSpacing bins; 0 disables them.
	GridSpacing int

	// GridColor is the hex colour of the grid lines ("#RRGGBB" or "#RRGGBBAA").
	GridColor string
}

// RenderResult contains a rendered image encoded as base64 PNG.
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// ClusterColor returns the display colour of the i-th cluster. Hues step by the
// golden angle so neighbouring indices get well separated colours.
func ClusterColor(i int) colorful.Color {
	hue := math.Mod(float64(i)*137.50776405, 360)
	return colorful.Hsv(hue, 0.8, 0.95).Clamped()
}

// Render draws g as a grayscale heat map with wires along x and ticks along y
// (increasing upward). Cells listed in clusters are painted in the cluster's
// colour, shaded by the cell value. g and clusters are only read.
func Render(g *Grid, clusters [][]int, opts RenderOptions) image.Image {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if g.Len() == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}

	owner := make(map[int]int)
	for i, cells := range clusters {
		for _, c := range cells {
			owner[c] = i
		}
	}

	peak := g.Max()
	img := image.NewNRGBA(image.Rect(0, 0, g.Wires, g.Ticks))
	for w := 0; w < g.Wires; w++ {
		for t := 0; t < g.Ticks; t++ {
			cell := g.Index(w, t)
			level := 0.0
			if peak > 0 {
				level = math.Sqrt(math.Max(g.Values[cell], 0) / peak)
			}
			var c color.Color
			if i, ok := owner[cell]; ok {
				h, s, _ := ClusterColor(i).Hsv()
				c = colorful.Hsv(h, s, 0.35+0.65*level).Clamped()
			} else {
				v := uint8(math.Round(255 * level))
				c = color.NRGBA{R: v, G: v, B: v, A: 255}
			}
			img.Set(w, t, c)
		}
	}

	// Image rows grow downward; flip so ticks grow upward.
	out := imaging.FlipV(img)
	if opts.Scale > 1 {
		out = imaging.Resize(out, g.Wires*opts.Scale, g.Ticks*opts.Scale, imaging.NearestNeighbor)
	}
	if opts.GridSpacing > 0 {
		lineColor, err := parseHexColor(opts.GridColor)
		if err != nil {
			lineColor = color.RGBA{255, 0, 0, 128}
		}
		drawGridLines(out, opts.GridSpacing*opts.Scale, lineColor)
	}
	return out
}

// EncodePNG encodes img as a base64 PNG result.
func EncodePNG(img image.Image) (*RenderResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &RenderResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SavePNG writes img to path. The format follows the file extension.
func SavePNG(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// drawGridLines blends vertical and horizontal lines every spacing pixels.
func drawGridLines(img *image.NRGBA, spacing int, c color.RGBA) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	for x := spacing; x < width; x += spacing {
		for y := 0; y < height; y++ {
			img.Set(x, y, blend(img.NRGBAAt(x, y), c))
		}
	}
	for y := height - spacing; y > 0; y -= spacing {
		for x := 0; x < width; x++ {
			img.Set(x, y, blend(img.NRGBAAt(x, y), c))
		}
	}
}

// blend composites c over dst using c's alpha.
func blend(dst color.NRGBA, c color.RGBA) color.NRGBA {
	a := float64(c.A) / 255
	mix := func(d, s uint8) uint8 {
		return uint8(math.Round(float64(d)*(1-a) + float64(s)*a))
	}
	return color.NRGBA{R: mix(dst.R, c.R), G: mix(dst.G, c.G), B: mix(dst.B, c.B), A: 255}
}

// parseHexColor parses "#RRGGBB" or "#RRGGBBAA". The leading '#' is optional
// and a missing alpha means opaque.
func parseHexColor(hex string) (color.RGBA, error) {
	hex = strings.TrimPrefix(hex, "#")

	a := uint8(255)
	switch len(hex) {
	case 6:
	case 8:
		v, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid alpha in %q: %w", hex, err)
		}
		a = uint8(v)
		hex = hex[:6]
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: want 6 or 8 digits", hex)
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}
