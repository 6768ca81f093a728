package maprender

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"net/http"

	"github.com/fogleman/gg"

	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/model"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/port"
)

const (
	titleBand  = 36.0
	footerBand = 22.0

	criticalRadius = 7.0
	markerRadius   = 5.0
	crossHalf      = 9.0
)

// Renderer implements port.MapRenderer with gg over slippy-map tiles.
type Renderer struct {
	style   Style
	palette palette
	tiles   *tileSource // nil when basemaps are disabled
	logger  *slog.Logger
}

// NewRenderer creates a renderer for style. client may be nil.
func NewRenderer(style Style, client *http.Client, logger *slog.Logger) (*Renderer, error) {
	if err := style.Validate(); err != nil {
		return nil, err
	}
	pal, err := style.palette()
	if err != nil {
		return nil, err
	}

	r := &Renderer{style: style, palette: pal, logger: logger}
	if style.TileURL != "" {
		if r.tiles, err = newTileSource(style, client); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RenderOverview draws the route through every valid marker and the
// markers coloured by severity.
func (r *Renderer) RenderOverview(ctx context.Context, markers []model.DefectMarker) (model.MapImage, error) {
	if err := ctx.Err(); err != nil {
		return model.MapImage{}, &port.RenderError{View: "overview", Err: err}
	}

	valid := make([]model.DefectMarker, 0, len(markers))
	for _, m := range markers {
		if m.Location.Valid() {
			valid = append(valid, m)
		}
	}
	if len(valid) == 0 {
		return r.placeholder("overview")
	}

	xs := make([]float64, len(valid))
	ys := make([]float64, len(valid))
	for i, m := range valid {
		xs[i], ys[i] = project(m.Location)
	}

	st := r.style.Overview
	area := rect{x: 0, y: titleBand, w: float64(st.Width), h: float64(st.Height) - titleBand}
	vp := newViewport(boundsOf(xs, ys).pad(st.Padding, st.MinSpanMeters), area)

	dc := gg.NewContext(st.Width, st.Height)
	dc.SetColor(r.palette.background)
	dc.Clear()

	zoom := zoomFor(vp.metersPerPixel(), r.style.MaxZoom)
	missing := r.drawBasemap(ctx, dc, vp, zoom)

	clip(dc, area)
	if len(valid) > 1 {
		dc.SetColor(r.palette.route)
		dc.SetLineWidth(2)
		for i := range valid {
			px, py := vp.toPixel(xs[i], ys[i])
			if i == 0 {
				dc.MoveTo(px, py)
			} else {
				dc.LineTo(px, py)
			}
		}
		dc.Stroke()
	}

	// Low first so critical markers stay on top.
	for _, layer := range []markerClass{classLow, classMedium, classCritical} {
		for i, m := range valid {
			if classify(m) != layer {
				continue
			}
			px, py := vp.toPixel(xs[i], ys[i])
			r.drawMarker(dc, px, py, layer)
		}
	}
	dc.ResetClip()

	dc.SetColor(r.palette.text)
	dc.DrawStringAnchored(st.Title, float64(st.Width)/2, titleBand/2, 0.5, 0.5)
	r.drawLegend(dc, area, valid)

	return r.encode(dc, "overview", missing)
}

// RenderDefect draws a zoomed view around location with a cross marker.
func (r *Renderer) RenderDefect(ctx context.Context, location model.GeoPoint, defectType string) (model.MapImage, error) {
	if err := ctx.Err(); err != nil {
		return model.MapImage{}, &port.RenderError{View: "defect", Err: err}
	}
	if !location.Valid() {
		return r.placeholder("defect")
	}

	st := r.style.Defect
	x, y := project(location)
	buf := st.BufferMeters
	content := bounds{minX: x - buf, minY: y - buf, maxX: x + buf, maxY: y + buf}
	area := rect{x: 0, y: titleBand, w: float64(st.Width), h: float64(st.Height) - titleBand - footerBand}
	vp := newViewport(content, area)

	dc := gg.NewContext(st.Width, st.Height)
	dc.SetColor(r.palette.background)
	dc.Clear()

	missing := r.drawBasemap(ctx, dc, vp, min(st.Zoom, r.style.MaxZoom))

	px, py := vp.toPixel(x, y)
	r.drawCross(dc, px, py)

	dc.SetColor(r.palette.text)
	dc.DrawStringAnchored("Location: "+defectType, float64(st.Width)/2, titleBand/2, 0.5, 0.5)
	dc.SetColor(r.palette.footer)
	dc.DrawStringAnchored(fmt.Sprintf("Lat: %.5f, Lon: %.5f", location.Lat, location.Lon),
		float64(st.Width)/2, float64(st.Height)-footerBand/2, 0.5, 0.5)

	return r.encode(dc, "defect", missing)
}

func (r *Renderer) placeholder(view string) (model.MapImage, error) {
	st := r.style.Placeholder
	dc := gg.NewContext(st.Width, st.Height)
	dc.SetColor(r.palette.background)
	dc.Clear()
	dc.SetColor(r.palette.text)
	dc.DrawStringAnchored(st.Text, float64(st.Width)/2, float64(st.Height)/2, 0.5, 0.5)
	return r.encode(dc, view, false)
}

// drawBasemap paints the tiles under vp and reports whether the basemap is
// missing. It never fails the render.
func (r *Renderer) drawBasemap(ctx context.Context, dc *gg.Context, vp viewport, zoom int) bool {
	if r.tiles == nil {
		return false
	}

	tiles := tilesCovering(vp.visible, zoom)
	for len(tiles) > r.style.MaxTiles && zoom > 0 {
		zoom--
		tiles = tilesCovering(vp.visible, zoom)
	}

	images, err := r.tiles.fetchAll(ctx, tiles)
	if err != nil {
		r.logger.WarnContext(ctx, "basemap unavailable, drawing on blank background",
			slog.Int("zoom", zoom),
			slog.Int("tiles", len(tiles)),
			slog.String("error", err.Error()),
		)
		return true
	}

	clip(dc, vp.area)
	defer dc.ResetClip()
	for i, t := range tiles {
		img := images[i]
		tb := tileBounds(t)
		px, py := vp.toPixel(tb.minX, tb.maxY)
		k := tb.width() * vp.scale / float64(img.Bounds().Dx())

		dc.Push()
		dc.Translate(px, py)
		dc.Scale(k, k)
		dc.DrawImage(img, 0, 0)
		dc.Pop()
	}
	return false
}

type markerClass int

const (
	classLow markerClass = iota
	classMedium
	classCritical
)

func classify(m model.DefectMarker) markerClass {
	switch {
	case m.Severity.IsCritical():
		return classCritical
	case m.Severity.IsMedium():
		return classMedium
	default:
		return classLow
	}
}

func (r *Renderer) classColor(c markerClass) color.Color {
	switch c {
	case classCritical:
		return r.palette.critical
	case classMedium:
		return r.palette.medium
	default:
		return r.palette.low
	}
}

func (r *Renderer) drawMarker(dc *gg.Context, x, y float64, c markerClass) {
	radius := markerRadius
	if c == classCritical {
		radius = criticalRadius
	}
	dc.DrawCircle(x, y, radius)
	dc.SetColor(r.classColor(c))
	dc.FillPreserve()
	dc.SetColor(r.palette.outline)
	dc.SetLineWidth(1)
	dc.Stroke()
}

func (r *Renderer) drawCross(dc *gg.Context, x, y float64) {
	for _, pass := range []struct {
		c     color.Color
		width float64
	}{
		{r.palette.outline, 6},
		{r.palette.marker, 3},
	} {
		dc.SetColor(pass.c)
		dc.SetLineWidth(pass.width)
		dc.DrawLine(x-crossHalf, y-crossHalf, x+crossHalf, y+crossHalf)
		dc.Stroke()
		dc.DrawLine(x-crossHalf, y+crossHalf, x+crossHalf, y-crossHalf)
		dc.Stroke()
	}
}

// drawLegend lists the marker classes present, in the upper-right corner.
func (r *Renderer) drawLegend(dc *gg.Context, area rect, markers []model.DefectMarker) {
	present := map[markerClass]bool{}
	for _, m := range markers {
		present[classify(m)] = true
	}

	entries := []struct {
		class markerClass
		label string
	}{
		{classCritical, "Critical"},
		{classMedium, "Medium"},
		{classLow, "Low/Resolved"},
	}

	const rowHeight, pad, boxWidth = 18.0, 8.0, 120.0
	rows := 0
	for _, e := range entries {
		if present[e.class] {
			rows++
		}
	}
	boxX := area.x + area.w - boxWidth - 10
	boxY := area.y + 10

	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawRectangle(boxX, boxY, boxWidth, float64(rows)*rowHeight+pad)
	dc.Fill()

	row := 0
	for _, e := range entries {
		if !present[e.class] {
			continue
		}
		cy := boxY + pad/2 + rowHeight*(float64(row)+0.5)
		r.drawMarker(dc, boxX+pad+markerRadius, cy, e.class)
		dc.SetColor(r.palette.text)
		dc.DrawStringAnchored(e.label, boxX+2*pad+2*markerRadius, cy, 0, 0.5)
		row++
	}
}

func (r *Renderer) encode(dc *gg.Context, view string, basemapMissing bool) (model.MapImage, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return model.MapImage{}, &port.RenderError{View: view, Err: err}
	}
	return model.MapImage{PNG: buf.Bytes(), BasemapMissing: basemapMissing}, nil
}

func clip(dc *gg.Context, area rect) {
	dc.DrawRectangle(area.x, area.y, area.w, area.h)
	dc.Clip()
}
