package extension

import (
	"fmt"
	"mime"

	"git.uuxo.net/uuxo/mime-resolver/internal/mediatype"
)

// extendedTypes supplements the platform registry (mime.TypeByExtension)
// with mappings it commonly lacks. Checked before the registry so the
// answers stay stable across hosts with different mime.types files.
var extendedTypes = map[string]string{
	// Text and web formats the platform table omits
	"txt":         "text/plain",
	"js":          "text/javascript",
	"mjs":         "text/javascript",
	"jsx":         "text/javascript",
	"ecma":        "text/javascript",
	"es":          "text/javascript",
	"json5":       "application/json5",
	"markdown":    "text/markdown",
	"md":          "text/markdown",
	"rst":         "text/x-rst",
	"xhtml":       "application/xhtml+xml",
	"webmanifest": "application/manifest+json",
	"csv":         "text/csv",
	"tsv":         "text/tab-separated-values",
	"ics":         "text/calendar",
	"vcf":         "text/vcard",

	// Audio formats
	"m4a":  "audio/mp4",
	"flac": "audio/flac",
	"ogg":  "audio/ogg",
	"oga":  "audio/ogg",
	"opus": "audio/opus",
	"aac":  "audio/aac",
	"wma":  "audio/x-ms-wma",
	"amr":  "audio/amr",
	"wav":  "audio/wav",
	"weba": "audio/webm",
	"mp3":  "audio/mpeg",
	"mid":  "audio/midi",
	"midi": "audio/midi",
	"m3u":  "audio/x-mpegurl",
	"m3u8": "application/x-mpegURL",

	// Video formats
	"webm": "video/webm",
	"mkv":  "video/x-matroska",
	"m4v":  "video/x-m4v",
	"3gp":  "video/3gpp",
	"asf":  "video/x-ms-asf",
	"wmv":  "video/x-ms-wmv",
	"flv":  "video/x-flv",
	"ts":   "video/mp2t",
	"avi":  "video/x-msvideo",
	"mpeg": "video/mpeg",
	"mpg":  "video/mpeg",
	"ogv":  "video/ogg",
	"ivf":  "video/x-ivf",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",

	// Image formats
	"webp": "image/webp",
	"heic": "image/heic",
	"heif": "image/heif",
	"jxl":  "image/jxl",
	"bmp":  "image/bmp",
	"ico":  "image/x-icon",
	"tif":  "image/tiff",
	"tiff": "image/tiff",

	// Archive formats
	"7z":  "application/x-7z-compressed",
	"rar": "application/vnd.rar",
	"tar": "application/x-tar",
	"bz2": "application/x-bzip2",
	"xz":  "application/x-xz",
	"lz4": "application/x-lz4",
	"zst": "application/zstd",

	// Document formats
	"epub": "application/epub+zip",
	"mobi": "application/x-mobipocket-ebook",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"odt":  "application/vnd.oasis.opendocument.text",
	"ods":  "application/vnd.oasis.opendocument.spreadsheet",
	"odp":  "application/vnd.oasis.opendocument.presentation",

	// Package and disk image formats
	"apk":   "application/vnd.android.package-archive",
	"deb":   "application/vnd.debian.binary-package",
	"rpm":   "application/x-rpm",
	"dmg":   "application/x-apple-diskimage",
	"msi":   "application/x-ms-installer",
	"iso":   "application/x-cd-image",
	"img":   "application/x-raw-disk-image",
	"qcow2": "application/x-qemu-disk",

	// Programming and configuration formats
	"py":    "text/x-python",
	"go":    "text/x-go",
	"rs":    "text/x-rust",
	"php":   "application/x-php",
	"pl":    "text/x-perl",
	"rb":    "text/x-ruby",
	"swift": "text/x-swift",
	"kt":    "text/x-kotlin",
	"scala": "text/x-scala",
	"sql":   "application/sql",
	"toml":  "application/toml",
	"yaml":  "application/x-yaml",
	"yml":   "application/x-yaml",
	"ini":   "text/plain",
	"conf":  "text/plain",
	"cfg":   "text/plain",
	"env":   "text/plain",

	// Font formats
	"woff":  "font/woff",
	"woff2": "font/woff2",
	"eot":   "application/vnd.ms-fontobject",
	"ttf":   "font/ttf",
	"otf":   "font/otf",
	"ttc":   "font/collection",

	// 3D model formats
	"stl": "model/stl",
	"obj": "model/obj",
	"ply": "model/ply",
	"3mf": "model/3mf",

	// Database formats
	"db":      "application/x-sqlite3",
	"sqlite":  "application/x-sqlite3",
	"sqlite3": "application/x-sqlite3",
	"mdb":     "application/x-msaccess",

	// PGP formats
	"gpg": "application/pgp-encrypted",
	"pgp": "application/pgp-encrypted",
	"sig": "application/pgp-signature",
	"asc": "application/pgp-keys",
}

// Resolve looks up ext in the full table: the extended map first, then
// the platform registry. Parameters reported by the registry (such as
// charset) are dropped so both table variants produce the same shape.
func Resolve(ext string) (mediatype.Type, error) {
	ext = Normalize(ext)
	if ext == "" {
		return mediatype.Type{}, fmt.Errorf("%w: empty extension", ErrUnknownExtension)
	}
	if ct, ok := extendedTypes[ext]; ok {
		return mediatype.Parse(ct)
	}
	if ct := mime.TypeByExtension("." + ext); ct != "" {
		t, err := mediatype.Parse(ct)
		if err != nil {
			return mediatype.Type{}, fmt.Errorf("%w: %q", ErrUnknownExtension, ext)
		}
		t.Params = nil
		return t, nil
	}
	return mediatype.Type{}, fmt.Errorf("%w: %q", ErrUnknownExtension, ext)
}
