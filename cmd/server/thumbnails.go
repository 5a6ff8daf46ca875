// thumbnails.go - JPEG thumbnail generation for texture payloads.
// Generates bounded thumbnails for image payloads on encode requests and
// returns them as data URLs. Thumbnails are cached on disk keyed by
// content hash.

package main

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"git.uuxo.net/uuxo/mime-resolver/internal/cache"
	"git.uuxo.net/uuxo/mime-resolver/internal/config"
	"git.uuxo.net/uuxo/mime-resolver/internal/dataurl"
	"git.uuxo.net/uuxo/mime-resolver/internal/mediatype"
	"git.uuxo.net/uuxo/mime-resolver/internal/metrics"
	"git.uuxo.net/uuxo/mime-resolver/internal/texture"
	"git.uuxo.net/uuxo/mime-resolver/internal/utils"
)

const (
	defaultThumbWidth   = 320
	defaultThumbHeight  = 240
	defaultThumbQuality = 75
	thumbSuffix         = ".thumb.jpg"
)

var (
	thumbnailOnce sync.Once
	thumbEnabled  bool
	thumbDir      string
	thumbWidth    int
	thumbHeight   int
	thumbQuality  int
)

// InitThumbnails initializes thumbnail generation settings from config.
func InitThumbnails(cfg *config.ThumbnailsConfig) {
	thumbnailOnce.Do(func() {
		if !cfg.Enabled {
			log.Info("Thumbnail generation disabled")
			return
		}

		thumbEnabled = true
		thumbWidth = cfg.Width
		if thumbWidth <= 0 {
			thumbWidth = defaultThumbWidth
		}
		thumbHeight = cfg.Height
		if thumbHeight <= 0 {
			thumbHeight = defaultThumbHeight
		}
		thumbQuality = cfg.Quality
		if thumbQuality <= 0 || thumbQuality > 100 {
			thumbQuality = defaultThumbQuality
		}

		thumbDir = cfg.Directory
		if thumbDir != "" {
			if err := os.MkdirAll(thumbDir, 0755); err != nil {
				log.Warnf("Thumbnail cache directory unavailable, caching disabled: %v", err)
				thumbDir = ""
			}
		}

		log.Infof("✅ Thumbnail generation enabled (%dx%d, quality=%d)", thumbWidth, thumbHeight, thumbQuality)
	})
}

// thumbCachePath returns the cache file path for a payload, or "" when
// disk caching is off.
func thumbCachePath(data []byte) string {
	if thumbDir == "" {
		return ""
	}
	return filepath.Join(thumbDir, cache.Key(data)+thumbSuffix)
}

// GenerateThumbnailDataURL creates a JPEG thumbnail for an image payload
// and returns it as a data URL. Returns ("", nil) if thumbnails are
// disabled or the payload is not a texture type. SVG never reaches this
// point since it is not a texture.
func GenerateThumbnailDataURL(data []byte, t mediatype.Type) (string, error) {
	if !thumbEnabled || !texture.IsTexture(t) {
		return "", nil
	}

	jpegType := mediatype.Type{Main: "image", Sub: "jpeg"}

	cachePath := thumbCachePath(data)
	if cachePath != "" {
		if cached, err := os.ReadFile(cachePath); err == nil {
			log.Debugf("Thumbnail cache hit: %s", filepath.Base(cachePath))
			return dataurl.FromBytes(cached, jpegType).String(), nil
		}
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		metrics.ThumbnailErrorsTotal.Inc()
		return "", fmt.Errorf("failed to decode image payload: %w", err)
	}

	// Fit within bounds, preserve aspect ratio
	thumb := imaging.Fit(src, thumbWidth, thumbHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbQuality}); err != nil {
		metrics.ThumbnailErrorsTotal.Inc()
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	if cachePath != "" {
		if err := os.WriteFile(cachePath, buf.Bytes(), 0644); err != nil {
			log.Warnf("Failed to cache thumbnail: %v", err)
		}
	}

	metrics.ThumbnailsGeneratedTotal.Inc()
	bounds := thumb.Bounds()
	log.Debugf("📸 Generated thumbnail: %dx%d (%s)",
		bounds.Dx(), bounds.Dy(), utils.FormatBytes(int64(buf.Len())))

	return dataurl.FromBytes(buf.Bytes(), jpegType).String(), nil
}
