package maprender

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/model"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/port"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/valueobject"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func offlineStyle() Style {
	s := DefaultStyle()
	s.TileURL = ""
	return s
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func containsColor(img image.Image, want color.NRGBA) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c == want {
				return true
			}
		}
	}
	return false
}

var pipelineMarkers = []model.DefectMarker{
	{Location: model.GeoPoint{Lat: 43.2220, Lon: 76.8512}, Type: "corrosion", Severity: valueobject.SeverityCritical},
	{Location: model.GeoPoint{Lat: 43.2300, Lon: 76.8600}, Type: "dent", Severity: valueobject.SeverityMedium},
	{Location: model.GeoPoint{Lat: 43.2400, Lon: 76.8700}, Type: "crack", Severity: valueobject.SeverityLow},
}

// --- Style ---

func TestLoadStyle_EmptyPathReturnsDefaults(t *testing.T) {
	style, err := LoadStyle("")
	require.NoError(t, err)
	assert.Equal(t, DefaultStyle(), style)
	assert.NoError(t, style.Validate())
}

func TestLoadStyle_OverridesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "style.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tile_url: ""
tile_timeout: 3s
overview:
  width: 800
colors:
  critical: "#ff0000"
`), 0o600))

	style, err := LoadStyle(path)
	require.NoError(t, err)

	assert.Empty(t, style.TileURL)
	assert.Equal(t, 3*time.Second, style.TileTimeout)
	assert.Equal(t, 800, style.Overview.Width)
	assert.Equal(t, 600, style.Overview.Height)
	assert.Equal(t, "#ff0000", style.Colors.Critical)
	assert.Equal(t, "#f57c00", style.Colors.Medium)
}

func TestLoadStyle_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadStyle(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("colors:\n  low: \"green\"\n"), 0o600))
	_, err = LoadStyle(bad)
	assert.ErrorContains(t, err, "colors.low")

	noXYZ := filepath.Join(dir, "noxyz.yaml")
	require.NoError(t, os.WriteFile(noXYZ, []byte("tile_url: \"https://tiles.example/{z}.png\"\n"), 0o600))
	_, err = LoadStyle(noXYZ)
	assert.ErrorContains(t, err, "tile_url")
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#d32f2f", color.NRGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff}},
		{"#fff", color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{"#0000ff80", color.NRGBA{B: 0xff, A: 0x80}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHexColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseHexColor("#12345")
	assert.Error(t, err)
	_, err = parseHexColor("#gggggg")
	assert.Error(t, err)
}

// --- Projection ---

func TestProject(t *testing.T) {
	x, y := project(model.GeoPoint{})
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	x, _ = project(model.GeoPoint{Lon: 180})
	assert.InDelta(t, originShift, x, 1e-3)

	_, yMax := project(model.GeoPoint{Lat: 90})
	_, yClamp := project(model.GeoPoint{Lat: maxLatitude})
	assert.Equal(t, yClamp, yMax)
	assert.InDelta(t, originShift, yMax, 1)
}

func TestTilesCovering(t *testing.T) {
	world := bounds{minX: -originShift, minY: -originShift, maxX: originShift - 1, maxY: originShift - 1}

	assert.Equal(t, []tileID{{Z: 0}}, tilesCovering(world, 0))
	assert.Len(t, tilesCovering(world, 1), 4)

	tb := tileBounds(tileID{Z: 1, X: 1, Y: 0})
	assert.InDelta(t, 0, tb.minX, 1e-6)
	assert.InDelta(t, 0, tb.minY, 1e-6)
	assert.InDelta(t, originShift, tb.maxX, 1e-6)
	assert.InDelta(t, originShift, tb.maxY, 1e-6)
}

func TestZoomFor(t *testing.T) {
	assert.Equal(t, 0, zoomFor(2*originShift/tileSize, 18))
	assert.Equal(t, 15, zoomFor(2*originShift/tileSize/math.Pow(2, 15), 18))
	assert.Equal(t, 18, zoomFor(0.001, 18))
	assert.Equal(t, 0, zoomFor(1e9, 18))
}

func TestViewport_CentresContent(t *testing.T) {
	content := bounds{minX: 0, minY: 0, maxX: 100, maxY: 100}
	vp := newViewport(content, rect{x: 0, y: 0, w: 200, h: 100})

	px, py := vp.toPixel(50, 50)
	assert.InDelta(t, 100, px, 1e-9)
	assert.InDelta(t, 50, py, 1e-9)
	assert.InDelta(t, 1, vp.metersPerPixel(), 1e-9)
}

func TestBoundsPad_MinSpan(t *testing.T) {
	b := bounds{minX: 10, minY: 10, maxX: 10, maxY: 10}.pad(0.1, 1000)
	assert.InDelta(t, 1000, b.width(), 1e-9)
	assert.InDelta(t, 1000, b.height(), 1e-9)
}

// --- Tiles ---

func TestTileSource_URL(t *testing.T) {
	src := &tileSource{urlTemplate: DefaultTileURL, subdomains: []string{"a", "b", "c", "d"}}
	assert.Equal(t, "https://c.basemaps.cartocdn.com/light_all/5/1/1.png", src.url(tileID{Z: 5, X: 1, Y: 1}))
}

type tileServer struct {
	*httptest.Server
	hits   atomic.Int64
	agents atomic.Value
}

func newTileServer(t *testing.T, status int) *tileServer {
	t.Helper()
	ts := &tileServer{}

	img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	for i := range img.Pix {
		img.Pix[i] = 0xcc
	}
	var body bytes.Buffer
	require.NoError(t, png.Encode(&body, img))

	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		ts.agents.Store(r.UserAgent())
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body.Bytes())
	}))
	t.Cleanup(ts.Close)
	return ts
}

func onlineStyle(ts *tileServer) Style {
	s := DefaultStyle()
	s.TileURL = ts.URL + "/{z}/{x}/{y}.png"
	s.Subdomains = nil
	s.TileTimeout = 2 * time.Second
	return s
}

// --- Renderer ---

func TestRenderOverview_NoValidPointsReturnsPlaceholder(t *testing.T) {
	r, err := NewRenderer(offlineStyle(), nil, testLogger())
	require.NoError(t, err)

	for name, markers := range map[string][]model.DefectMarker{
		"empty":   nil,
		"invalid": {{Location: model.GeoPoint{Lat: math.NaN(), Lon: 10}}, {Location: model.GeoPoint{Lat: 120}}},
	} {
		t.Run(name, func(t *testing.T) {
			out, err := r.RenderOverview(context.Background(), markers)
			require.NoError(t, err)
			assert.False(t, out.BasemapMissing)

			img := decodePNG(t, out.PNG)
			assert.Equal(t, image.Rect(0, 0, 500, 200), img.Bounds())
		})
	}
}

func TestRenderOverview_Offline(t *testing.T) {
	r, err := NewRenderer(offlineStyle(), nil, testLogger())
	require.NoError(t, err)

	out, err := r.RenderOverview(context.Background(), pipelineMarkers)
	require.NoError(t, err)
	assert.False(t, out.BasemapMissing)

	img := decodePNG(t, out.PNG)
	assert.Equal(t, image.Rect(0, 0, 1000, 600), img.Bounds())
	assert.True(t, containsColor(img, r.palette.critical), "critical marker drawn")
	assert.True(t, containsColor(img, r.palette.medium), "medium marker drawn")
	assert.True(t, containsColor(img, r.palette.low), "low marker drawn")
}

func TestRenderOverview_SinglePoint(t *testing.T) {
	r, err := NewRenderer(offlineStyle(), nil, testLogger())
	require.NoError(t, err)

	out, err := r.RenderOverview(context.Background(), pipelineMarkers[:1])
	require.NoError(t, err)
	img := decodePNG(t, out.PNG)
	assert.True(t, containsColor(img, r.palette.critical))
}

func TestRenderOverview_WithTilesUsesCache(t *testing.T) {
	ts := newTileServer(t, http.StatusOK)
	r, err := NewRenderer(onlineStyle(ts), ts.Client(), testLogger())
	require.NoError(t, err)

	out, err := r.RenderOverview(context.Background(), pipelineMarkers)
	require.NoError(t, err)
	assert.False(t, out.BasemapMissing)
	decodePNG(t, out.PNG)

	first := ts.hits.Load()
	require.Positive(t, first)
	assert.LessOrEqual(t, first, int64(DefaultStyle().MaxTiles))
	assert.Equal(t, DefaultStyle().UserAgent, ts.agents.Load())

	_, err = r.RenderOverview(context.Background(), pipelineMarkers)
	require.NoError(t, err)
	assert.Equal(t, first, ts.hits.Load(), "second render served from cache")
}

func TestRenderOverview_TileFailureFallsBackToBlank(t *testing.T) {
	ts := newTileServer(t, http.StatusInternalServerError)
	r, err := NewRenderer(onlineStyle(ts), ts.Client(), testLogger())
	require.NoError(t, err)

	out, err := r.RenderOverview(context.Background(), pipelineMarkers)
	require.NoError(t, err)
	assert.True(t, out.BasemapMissing)

	img := decodePNG(t, out.PNG)
	assert.Equal(t, image.Rect(0, 0, 1000, 600), img.Bounds())
	assert.True(t, containsColor(img, r.palette.critical))
}

func TestRenderOverview_CancelledContext(t *testing.T) {
	r, err := NewRenderer(offlineStyle(), nil, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.RenderOverview(ctx, pipelineMarkers)
	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrRender)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderDefect(t *testing.T) {
	ts := newTileServer(t, http.StatusOK)
	r, err := NewRenderer(onlineStyle(ts), ts.Client(), testLogger())
	require.NoError(t, err)

	out, err := r.RenderDefect(context.Background(), model.GeoPoint{Lat: 43.222, Lon: 76.8512}, "corrosion")
	require.NoError(t, err)
	assert.False(t, out.BasemapMissing)

	img := decodePNG(t, out.PNG)
	assert.Equal(t, image.Rect(0, 0, 600, 400), img.Bounds())
	assert.True(t, containsColor(img, r.palette.marker), "cross marker drawn")
	assert.Positive(t, ts.hits.Load())
}

func TestRenderDefect_InvalidLocationReturnsPlaceholder(t *testing.T) {
	r, err := NewRenderer(offlineStyle(), nil, testLogger())
	require.NoError(t, err)

	out, err := r.RenderDefect(context.Background(), model.GeoPoint{Lat: 91}, "dent")
	require.NoError(t, err)
	img := decodePNG(t, out.PNG)
	assert.Equal(t, image.Rect(0, 0, 500, 200), img.Bounds())
}

func TestNewRenderer_RejectsInvalidStyle(t *testing.T) {
	style := offlineStyle()
	style.Defect.Width = 0
	_, err := NewRenderer(style, nil, testLogger())
	assert.Error(t, err)
}
