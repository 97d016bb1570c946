package view

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	badgeWidth     = 220
	badgeHeight    = 72
	badgePadding   = 10
	badgeBarHeight = 12
)

// WidgetBadge describes the values drawn on the home-screen badge.
type WidgetBadge struct {
	Progress float64
	Intake   string
	Goal     string
	Dark     bool
}

type badgePalette struct {
	background color.RGBA
	track      color.RGBA
	fill       color.RGBA
	done       color.RGBA
	text       color.RGBA
}

var (
	lightPalette = badgePalette{
		background: color.RGBA{R: 0xf5, G: 0xf9, B: 0xff, A: 0xff},
		track:      color.RGBA{R: 0xd6, G: 0xe4, B: 0xf5, A: 0xff},
		fill:       color.RGBA{R: 0x2f, G: 0x80, B: 0xed, A: 0xff},
		done:       color.RGBA{R: 0x27, G: 0xae, B: 0x60, A: 0xff},
		text:       color.RGBA{R: 0x1f, G: 0x2d, B: 0x3d, A: 0xff},
	}
	darkPalette = badgePalette{
		background: color.RGBA{R: 0x12, G: 0x1a, B: 0x26, A: 0xff},
		track:      color.RGBA{R: 0x2a, G: 0x38, B: 0x4a, A: 0xff},
		fill:       color.RGBA{R: 0x56, G: 0xa0, B: 0xff, A: 0xff},
		done:       color.RGBA{R: 0x4c, G: 0xd1, B: 0x86, A: 0xff},
		text:       color.RGBA{R: 0xe8, G: 0xee, B: 0xf5, A: 0xff},
	}
)

// RenderWidgetBadge draws a progress bar with today's intake and goal as PNG.
func RenderWidgetBadge(badge WidgetBadge) ([]byte, error) {
	palette := lightPalette
	if badge.Dark {
		palette = darkPalette
	}

	progress := badge.Progress
	if math.IsNaN(progress) || progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, badgeWidth, badgeHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(palette.background), image.Point{}, draw.Src)

	percent := fmt.Sprintf("%d%%", int(math.Round(progress*100)))
	drawText(img, badgePadding, badgePadding+13, badge.Intake+" / "+badge.Goal, palette.text)
	drawText(img, badgeWidth-badgePadding-textWidth(percent), badgePadding+13, percent, palette.text)

	barTop := badgeHeight - badgePadding - badgeBarHeight
	track := image.Rect(badgePadding, barTop, badgeWidth-badgePadding, barTop+badgeBarHeight)
	draw.Draw(img, track, image.NewUniform(palette.track), image.Point{}, draw.Src)

	fillColor := palette.fill
	if progress >= 1 {
		fillColor = palette.done
	}
	fillWidth := int(math.Round(float64(track.Dx()) * progress))
	if fillWidth > 0 {
		fill := image.Rect(track.Min.X, track.Min.Y, track.Min.X+fillWidth, track.Max.Y)
		draw.Draw(img, fill, image.NewUniform(fillColor), image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode widget badge: %w", err)
	}
	return buf.Bytes(), nil
}

func drawText(dst draw.Image, x, y int, text string, c color.Color) {
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}

func textWidth(text string) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}
