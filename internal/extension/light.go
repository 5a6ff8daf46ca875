package extension

import (
	"fmt"

	"git.uuxo.net/uuxo/mime-resolver/internal/mediatype"
)

// ResolveLight looks up ext in the curated light table. The table is a
// plain switch over common web, image, font, audio and video
// extensions, chosen for lookup latency: no map hashing, no registry
// lock, no allocation beyond the returned value.
func ResolveLight(ext string) (mediatype.Type, error) {
	main, sub := lightLookup(Normalize(ext))
	if main == "" {
		return mediatype.Type{}, fmt.Errorf("%w: %q", ErrUnknownExtension, ext)
	}
	return mediatype.Type{Main: main, Sub: sub}, nil
}

func lightLookup(ext string) (main, sub string) {
	switch ext {
	// Text
	case "txt":
		return "text", "plain"
	case "css":
		return "text", "css"
	case "htm", "html":
		return "text", "html"
	case "js", "mjs", "jsx", "ecma", "es":
		return "text", "javascript"
	case "json":
		return "application", "json"
	case "json5":
		return "application", "json5"
	case "yaml", "yml":
		return "text", "x-yaml"
	case "toml":
		return "text", "x-toml"
	case "markdown", "md":
		return "text", "markdown"
	case "xhtml":
		return "application", "xhtml+xml"
	case "xml":
		return "text", "xml"
	case "csv":
		return "text", "csv"
	case "tsv":
		return "text", "tab-separated-values"
	// Images
	case "bmp":
		return "image", "bmp"
	case "avif":
		return "image", "avif"
	case "gif":
		return "image", "gif"
	case "ico":
		return "image", "x-icon"
	case "jpeg", "jpg":
		return "image", "jpeg"
	case "png":
		return "image", "png"
	case "svg":
		return "image", "svg+xml"
	case "webp":
		return "image", "webp"
	// Fonts
	case "otf":
		return "font", "otf"
	case "ttf":
		return "font", "ttf"
	case "ttc":
		return "font", "collection"
	case "woff":
		return "font", "woff"
	case "woff2":
		return "font", "woff2"
	// Audio
	case "aac":
		return "audio", "aac"
	case "midi", "mid":
		return "audio", "midi"
	case "mp3":
		return "audio", "mpeg"
	case "oga", "ogg":
		return "audio", "ogg"
	case "wav":
		return "audio", "wav"
	case "weba":
		return "audio", "webm"
	case "flac":
		return "audio", "flac"
	case "m3u", "m3u8":
		return "audio", "x-mpegurl"
	case "m4a":
		return "audio", "m4a"
	// Video
	case "avi":
		return "video", "x-msvideo"
	case "mpeg":
		return "video", "mpeg"
	case "ogv":
		return "video", "ogg"
	case "ivf":
		return "video", "x-ivf"
	case "webm":
		return "video", "webm"
	case "mp4":
		return "video", "mp4"
	case "flv":
		return "video", "x-flv"
	case "ts":
		// MPEG transport stream, not TypeScript.
		return "audio", "vnd.dlna.mpeg-tts"
	case "mov":
		return "video", "quicktime"
	case "wmv":
		return "video", "x-ms-wmv"
	// Other
	case "pdf":
		return "application", "pdf"
	case "wasm":
		return "application", "wasm"
	case "webmanifest":
		return "application", "manifest+json"
	}
	return "", ""
}
