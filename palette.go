package genpipe

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sort"

	// decoders for remote payloads
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/soniakeys/quant/median"
	_ "golang.org/x/image/webp"
)

// DefaultPalette is used when no colors can be derived from an image.
var DefaultPalette = []string{"#334155", "#6366f1", "#f472b6"}

const (
	paletteColors   = 4
	paletteKeep     = 3
	maxPaletteSamps = 1 << 16
)

// ExtractPalette reduces img to four representative colors with median cut
// and returns the three most frequent as "#rrggbb".
func ExtractPalette(img image.Image) []string {
	sample := sampleImage(img)
	if sample == nil {
		return append([]string(nil), DefaultPalette...)
	}

	bounds := sample.Bounds()
	pal := median.Quantizer(paletteColors).Quantize(make(color.Palette, 0, paletteColors), sample)
	if len(pal) == 0 {
		return append([]string(nil), DefaultPalette...)
	}
	pm := image.NewPaletted(bounds, pal)
	draw.Draw(pm, bounds, sample, bounds.Min, draw.Src)

	counts := make(map[string]int, len(pal))
	order := make([]string, 0, len(pal))
	for _, idx := range pm.Pix {
		hex := colorHex(pal[idx])
		if _, ok := counts[hex]; !ok {
			order = append(order, hex)
		}
		counts[hex]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > paletteKeep {
		order = order[:paletteKeep]
	}
	return order
}

// sampleImage returns img, or a nearest-neighbour reduction of it holding
// at most maxPaletteSamps pixels. It returns nil for empty images.
func sampleImage(img image.Image) image.Image {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total <= 0 {
		return nil
	}
	step := 1
	for total/(step*step) > maxPaletteSamps {
		step++
	}
	if step == 1 {
		return img
	}

	w := (b.Dx() + step - 1) / step
	h := (b.Dy() + step - 1) / step
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(x, y, img.At(b.Min.X+x*step, b.Min.Y+y*step))
		}
	}
	return out
}

func colorHex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
