// Package extension resolves media types from file-name extensions.
// Two lookup variants share one contract: a curated light table for
// hot paths and a full table backed by the platform registry.
package extension

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"git.uuxo.net/uuxo/mime-resolver/internal/mediatype"
)

// ErrUnknownExtension indicates that no table entry matched.
var ErrUnknownExtension = errors.New("unknown extension")

// Table is a named extension-lookup variant. Tables are read-only and
// safe for concurrent use without locking.
type Table interface {
	Resolve(ext string) (mediatype.Type, error)
}

type lightTable struct{}

func (lightTable) Resolve(ext string) (mediatype.Type, error) { return ResolveLight(ext) }

type fullTable struct{}

func (fullTable) Resolve(ext string) (mediatype.Type, error) { return Resolve(ext) }

// ByName returns the table variant for a config name, "light" or
// "full". The light table is the default.
func ByName(name string) (Table, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "light":
		return lightTable{}, nil
	case "full":
		return fullTable{}, nil
	default:
		return nil, fmt.Errorf("unknown extension table %q", name)
	}
}

// Normalize strips a leading dot and lower-cases the extension.
func Normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// PathExt returns the normalized extension of the final path segment.
// No filesystem access; a segment without a dot yields "".
func PathExt(path string) string {
	return Normalize(filepath.Ext(path))
}

// ResolvePath resolves the extension of path against the full table.
func ResolvePath(path string) (mediatype.Type, error) {
	return Resolve(PathExt(path))
}

// ResolvePathLight resolves the extension of path against the light table.
func ResolvePathLight(path string) (mediatype.Type, error) {
	return ResolveLight(PathExt(path))
}
