package maprender

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

const maxTileBytes = 4 << 20

// tileSource fetches basemap tiles and keeps decoded tiles in an LRU.
type tileSource struct {
	client      *http.Client
	urlTemplate string
	subdomains  []string
	userAgent   string
	timeout     time.Duration
	concurrency int
	cache       *lru.Cache[tileID, image.Image]
}

func newTileSource(style Style, client *http.Client) (*tileSource, error) {
	cache, err := lru.New[tileID, image.Image](style.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create tile cache: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &tileSource{
		client:      client,
		urlTemplate: style.TileURL,
		subdomains:  style.Subdomains,
		userAgent:   style.UserAgent,
		timeout:     style.TileTimeout,
		concurrency: style.TileConcurrency,
		cache:       cache,
	}, nil
}

// fetchAll returns every requested tile, or an error if any one of them is
// unavailable.
func (s *tileSource) fetchAll(ctx context.Context, tiles []tileID) ([]image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	images := make([]image.Image, len(tiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, t := range tiles {
		g.Go(func() error {
			img, err := s.fetch(gctx, t)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

func (s *tileSource) fetch(ctx context.Context, t tileID) (image.Image, error) {
	if img, ok := s.cache.Get(t); ok {
		return img, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(t), nil)
	if err != nil {
		return nil, fmt.Errorf("tile %d/%d/%d: %w", t.Z, t.X, t.Y, err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tile %d/%d/%d: %w", t.Z, t.X, t.Y, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile %d/%d/%d: unexpected status %d", t.Z, t.X, t.Y, resp.StatusCode)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxTileBytes))
	if err != nil {
		return nil, fmt.Errorf("tile %d/%d/%d: decode: %w", t.Z, t.X, t.Y, err)
	}

	s.cache.Add(t, img)
	return img, nil
}

func (s *tileSource) url(t tileID) string {
	sub := ""
	if len(s.subdomains) > 0 {
		sub = s.subdomains[(t.X+t.Y)%len(s.subdomains)]
	}
	return strings.NewReplacer(
		"{s}", sub,
		"{z}", strconv.Itoa(t.Z),
		"{x}", strconv.Itoa(t.X),
		"{y}", strconv.Itoa(t.Y),
		"{r}", "",
	).Replace(s.urlTemplate)
}
