package cmd

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/abhinvv1/WebDriverAgent/internal/gridsample"
	"github.com/abhinvv1/WebDriverAgent/internal/model"
	"github.com/abhinvv1/WebDriverAgent/internal/platform"
)

// Probe marker colours, one per outcome.
var outcomeColors = map[gridsample.Outcome]color.RGBA{
	gridsample.OutcomeHit:       {R: 0, G: 200, B: 0, A: 255},
	gridsample.OutcomeMiss:      {R: 128, G: 128, B: 128, A: 255},
	gridsample.OutcomeDuplicate: {R: 0, G: 120, B: 255, A: 255},
	gridsample.OutcomeFailed:    {R: 255, G: 0, B: 0, A: 255},
}

var (
	backgroundColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	boxColor        = color.RGBA{R: 255, G: 0, B: 0, A: 100}
	textColor       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor    = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// markerRadius is the half-width of a probe marker in pixels.
const markerRadius = 3

// DrawProbeMap renders the frame at scale pixels per point with the bounds of
// every element and a marker per probe coloured by outcome. Elements are
// labelled with their short type code.
func DrawProbeMap(frame platform.Rect, elements []model.FlatElement, probes []gridsample.Probe, scale float64) *image.RGBA {
	if scale <= 0 {
		scale = 1
	}
	w := int(frame.Width * scale)
	h := int(frame.Height * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	toPixel := func(x, y float64) (int, int) {
		return int((x - frame.X) * scale), int((y - frame.Y) * scale)
	}

	for _, el := range elements {
		if el.Depth == 0 {
			continue
		}
		r, ok := elementRect(el.Attrs)
		if !ok || r.Empty() {
			continue
		}
		x1, y1 := toPixel(r.X, r.Y)
		x2, y2 := toPixel(r.X+r.Width, r.Y+r.Height)
		drawRectangle(img, x1, y1, x2, y2, boxColor)
		drawTextWithOutline(img, model.ShortType(el.Type), (x1+x2)/2, (y1+y2)/2, textColor, outlineColor)
	}

	for _, p := range probes {
		c, ok := outcomeColors[p.Outcome]
		if !ok {
			continue
		}
		x, y := toPixel(p.Point.X, p.Point.Y)
		drawMarker(img, x, y, c)
	}
	return img
}

// elementRect reads an element's frame from its attributes.
func elementRect(attrs model.Attributes) (platform.Rect, bool) {
	var r platform.Rect
	var ok [4]bool
	r.X, ok[0] = model.NumberAttr(attrs, model.AttrX)
	r.Y, ok[1] = model.NumberAttr(attrs, model.AttrY)
	r.Width, ok[2] = model.NumberAttr(attrs, model.AttrWidth)
	r.Height, ok[3] = model.NumberAttr(attrs, model.AttrHeight)
	return r, ok[0] && ok[1] && ok[2] && ok[3]
}

// drawMarker fills a square centred on (x, y).
func drawMarker(img *image.RGBA, x, y int, c color.Color) {
	bounds := img.Bounds()
	for dx := -markerRadius; dx <= markerRadius; dx++ {
		for dy := -markerRadius; dy <= markerRadius; dy++ {
			if isWithinBounds(bounds, x+dx, y+dy) {
				img.Set(x+dx, y+dy, c)
			}
		}
	}
}

// isWithinBounds checks if a point is within the image bounds
func isWithinBounds(bounds image.Rectangle, x, y int) bool {
	return x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y
}

// drawRectangle draws a rectangle outline on the image
func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	bounds := img.Bounds()
	x1, y1 = max(x1, bounds.Min.X), max(y1, bounds.Min.Y)
	x2, y2 = min(x2, bounds.Max.X), min(y2, bounds.Max.Y)
	if x2 <= x1 || y2 <= y1 {
		return
	}

	for x := x1; x < x2; x++ {
		img.Set(x, y1, c)
		img.Set(x, y2-1, c)
	}
	for y := y1; y < y2; y++ {
		img.Set(x1, y, c)
		img.Set(x2-1, y, c)
	}
}

// drawTextWithOutline draws text centred on (x, y) with a one-pixel outline.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, textColor, outlineColor color.Color) {
	// basicfont.Face7x13 glyphs are 7 pixels wide and 13 high
	offsetX := x - len(text)*7/2
	offsetY := y + 13/2

	drawString := func(dx, dy int, c color.Color) {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(offsetX+dx, offsetY+dy),
		}
		d.DrawString(text)
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx != 0 || dy != 0 {
				drawString(dx, dy, outlineColor)
			}
		}
	}
	drawString(0, 0, textColor)
}
