package maprender

import (
	"math"

	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/model"
)

// Web Mercator (EPSG:3857) constants.
const (
	earthRadius = 6378137.0
	originShift = math.Pi * earthRadius
	maxLatitude = 85.05112878
	tileSize    = 256.0
)

// project converts a WGS84 point to Web Mercator meters.
func project(p model.GeoPoint) (x, y float64) {
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, p.Lat))
	x = p.Lon * originShift / 180.0
	y = math.Log(math.Tan((90+lat)*math.Pi/360.0)) * earthRadius
	return x, y
}

// bounds is an axis-aligned box in Web Mercator meters.
type bounds struct {
	minX, minY, maxX, maxY float64
}

func boundsOf(xs, ys []float64) bounds {
	b := bounds{minX: math.Inf(1), minY: math.Inf(1), maxX: math.Inf(-1), maxY: math.Inf(-1)}
	for i := range xs {
		b.minX = math.Min(b.minX, xs[i])
		b.maxX = math.Max(b.maxX, xs[i])
		b.minY = math.Min(b.minY, ys[i])
		b.maxY = math.Max(b.maxY, ys[i])
	}
	return b
}

func (b bounds) width() float64  { return b.maxX - b.minX }
func (b bounds) height() float64 { return b.maxY - b.minY }

// pad grows the box by ratio of its larger side on every edge and keeps
// each side at least minSpan long.
func (b bounds) pad(ratio, minSpan float64) bounds {
	margin := math.Max(b.width(), b.height()) * ratio
	b = bounds{minX: b.minX - margin, minY: b.minY - margin, maxX: b.maxX + margin, maxY: b.maxY + margin}
	if w := b.width(); w < minSpan {
		d := (minSpan - w) / 2
		b.minX, b.maxX = b.minX-d, b.maxX+d
	}
	if h := b.height(); h < minSpan {
		d := (minSpan - h) / 2
		b.minY, b.maxY = b.minY-d, b.maxY+d
	}
	return b
}

// rect is a pixel rectangle on the canvas.
type rect struct {
	x, y, w, h float64
}

// viewport maps Web Mercator meters onto a pixel rectangle with a uniform
// scale, centring the content box.
type viewport struct {
	area    rect
	visible bounds
	scale   float64 // pixels per meter
}

func newViewport(content bounds, area rect) viewport {
	scale := math.Min(area.w/content.width(), area.h/content.height())
	cx := (content.minX + content.maxX) / 2
	cy := (content.minY + content.maxY) / 2
	halfW := area.w / scale / 2
	halfH := area.h / scale / 2
	return viewport{
		area:    area,
		visible: bounds{minX: cx - halfW, minY: cy - halfH, maxX: cx + halfW, maxY: cy + halfH},
		scale:   scale,
	}
}

func (v viewport) toPixel(x, y float64) (px, py float64) {
	return v.area.x + (x-v.visible.minX)*v.scale, v.area.y + (v.visible.maxY-y)*v.scale
}

func (v viewport) metersPerPixel() float64 { return 1 / v.scale }

// zoomFor picks the tile zoom whose native resolution is closest to
// metersPerPixel.
func zoomFor(metersPerPixel float64, maxZoom int) int {
	native := 2 * originShift / tileSize
	z := int(math.Round(math.Log2(native / metersPerPixel)))
	return max(0, min(z, maxZoom))
}

type tileID struct {
	Z, X, Y int
}

func tileSpan(z int) float64 {
	return 2 * originShift / float64(int(1)<<z)
}

// tilesCovering lists the tiles at zoom z intersecting b, clamped to the
// world.
func tilesCovering(b bounds, z int) []tileID {
	span := tileSpan(z)
	last := (1 << z) - 1
	clamp := func(v int) int { return max(0, min(v, last)) }

	x0 := clamp(int(math.Floor((b.minX + originShift) / span)))
	x1 := clamp(int(math.Floor((b.maxX + originShift) / span)))
	y0 := clamp(int(math.Floor((originShift - b.maxY) / span)))
	y1 := clamp(int(math.Floor((originShift - b.minY) / span)))

	tiles := make([]tileID, 0, (x1-x0+1)*(y1-y0+1))
	for ty := y0; ty <= y1; ty++ {
		for tx := x0; tx <= x1; tx++ {
			tiles = append(tiles, tileID{Z: z, X: tx, Y: ty})
		}
	}
	return tiles
}

// tileBounds returns the Web Mercator extent of a tile.
func tileBounds(t tileID) bounds {
	span := tileSpan(t.Z)
	minX := float64(t.X)*span - originShift
	maxY := originShift - float64(t.Y)*span
	return bounds{minX: minX, minY: maxY - span, maxX: minX + span, maxY: maxY}
}
