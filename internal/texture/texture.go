// Package texture classifies media types as renderable texture
// formats. Three strategies answer the same question at different
// costs; IsTexture is the canonical one.
package texture

import (
	"strings"

	"git.uuxo.net/uuxo/mime-resolver/internal/mediatype"
)

// textureSet is the fast-path membership table of known texture
// formats, including the GPU container formats.
var textureSet = map[string]bool{
	"image/png":                true,
	"image/jpeg":               true,
	"image/gif":                true,
	"image/webp":               true,
	"image/bmp":                true,
	"image/avif":               true,
	"image/heic":               true,
	"image/heif":               true,
	"image/tiff":               true,
	"image/x-icon":             true,
	"image/vnd.microsoft.icon": true,
	"image/ktx":                true,
	"image/ktx2":               true,
	"image/vnd.ms-dds":         true,
}

// nonTexture lists image subtypes that are not renderable as textures.
var nonTexture = map[string]bool{
	"svg+xml": true,
}

// IsTexture reports whether t denotes a renderable texture format.
// The static set answers known formats; image subtypes the set does
// not cover fall through to the structural check, so a new raster
// subtype still classifies correctly.
func IsTexture(t mediatype.Type) bool {
	if isTextureSet(t) {
		return true
	}
	return isTextureStructural(t)
}

// IsTextureString classifies a rendered media type string without
// parsing it first.
func IsTextureString(s string) bool {
	return isTextureScan(s)
}

// isTextureSet is the exact-membership fast path.
func isTextureSet(t mediatype.Type) bool {
	return textureSet[t.Main+"/"+t.Sub]
}

// isTextureStructural decomposes the type: top level image, subtype
// not on the deny list. Parameters never participate.
func isTextureStructural(t mediatype.Type) bool {
	return t.Main == "image" && !nonTexture[t.Sub]
}

// isTextureScan works on the raw string form for callers that never
// parsed the type.
func isTextureScan(s string) bool {
	const prefix = "image/"
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return false
	}
	sub := strings.ToLower(s[len(prefix):])
	if i := strings.IndexByte(sub, ';'); i >= 0 {
		sub = strings.TrimSpace(sub[:i])
	}
	if sub == "" {
		return false
	}
	return !nonTexture[sub]
}
