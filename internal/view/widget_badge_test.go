package view

import (
	"bytes"
	"image/png"
	"testing"
)

func TestRenderWidgetBadge(t *testing.T) {
	cases := []struct {
		name  string
		badge WidgetBadge
	}{
		{name: "empty", badge: WidgetBadge{Progress: 0, Intake: "0 ml", Goal: "2500 ml"}},
		{name: "partial", badge: WidgetBadge{Progress: 0.4, Intake: "1000 ml", Goal: "2500 ml"}},
		{name: "over goal dark", badge: WidgetBadge{Progress: 1.7, Intake: "101.4 oz", Goal: "84.5 oz", Dark: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := RenderWidgetBadge(tc.badge)
			if err != nil {
				t.Fatalf("RenderWidgetBadge returned error: %v", err)
			}
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("failed to decode png: %v", err)
			}
			bounds := img.Bounds()
			if bounds.Dx() != badgeWidth || bounds.Dy() != badgeHeight {
				t.Fatalf("unexpected badge size %dx%d", bounds.Dx(), bounds.Dy())
			}
		})
	}
}

func TestRenderWidgetBadgeFillsProgress(t *testing.T) {
	data, err := RenderWidgetBadge(WidgetBadge{Progress: 0.5, Intake: "1250 ml", Goal: "2500 ml"})
	if err != nil {
		t.Fatalf("RenderWidgetBadge returned error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}

	y := badgeHeight - badgePadding - badgeBarHeight/2
	filled := img.At(badgePadding+1, y)
	empty := img.At(badgeWidth-badgePadding-1, y)

	fr, fg, fb, _ := filled.RGBA()
	er, eg, eb, _ := empty.RGBA()
	if fr == er && fg == eg && fb == eb {
		t.Fatal("expected the filled part of the bar to differ from the track")
	}
	wr, wg, wb, _ := lightPalette.fill.RGBA()
	if fr != wr || fg != wg || fb != wb {
		t.Fatalf("expected fill color at the start of the bar")
	}
}
