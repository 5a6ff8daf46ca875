// Package resolver is the facade over the resolution strategies:
// extension tables, content signatures, and literal parsing.
package resolver

import (
	"fmt"

	"git.uuxo.net/uuxo/mime-resolver/internal/extension"
	"git.uuxo.net/uuxo/mime-resolver/internal/magic"
	"git.uuxo.net/uuxo/mime-resolver/internal/mediatype"
	"git.uuxo.net/uuxo/mime-resolver/internal/texture"
	"git.uuxo.net/uuxo/mime-resolver/internal/utils"
)

// FromExtension resolves ext against the full table.
func FromExtension(ext string) (mediatype.Type, error) { return extension.Resolve(ext) }

// FromExtensionLight resolves ext against the light table.
func FromExtensionLight(ext string) (mediatype.Type, error) { return extension.ResolveLight(ext) }

// FromPath resolves the extension of path against the full table.
func FromPath(path string) (mediatype.Type, error) { return extension.ResolvePath(path) }

// FromPathLight resolves the extension of path against the light table.
func FromPathLight(path string) (mediatype.Type, error) { return extension.ResolvePathLight(path) }

// FromContent resolves data by its leading signature bytes.
func FromContent(data []byte) (mediatype.Type, error) { return magic.Sniff(data) }

// FromString parses a "type/subtype" literal.
func FromString(s string) (mediatype.Type, error) { return mediatype.Parse(s) }

// IsTexture reports whether t denotes a renderable texture format.
func IsTexture(t mediatype.Type) bool { return texture.IsTexture(t) }

// Detect resolves a type from whatever signals are present and always
// answers: path extension first, content signatures second, then a
// UTF-8 text check, with application/octet-stream as the last resort.
func Detect(path string, data []byte) mediatype.Type {
	if t, err := extension.ResolvePathLight(path); err == nil {
		return t
	}
	if t, err := extension.ResolvePath(path); err == nil {
		return t
	}
	if t, err := magic.Sniff(data); err == nil {
		return t
	}
	if utils.ValidText(data) {
		return mediatype.Type{Main: "text", Sub: "plain"}
	}
	return mediatype.Type{Main: "application", Sub: "octet-stream"}
}

// Options selects a Resolver's capability set at construction time.
type Options struct {
	// Table picks the extension table variant, "light" (default) or
	// "full".
	Table string
	// Magic enables content sniffing.
	Magic bool
}

// Resolver binds one extension table variant and an optional sniffing
// capability behind the shared entry points. The zero value is not
// usable; construct with New.
type Resolver struct {
	table extension.Table
	sniff bool
}

// New builds a Resolver from opts.
func New(opts Options) (*Resolver, error) {
	tbl, err := extension.ByName(opts.Table)
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}
	return &Resolver{table: tbl, sniff: opts.Magic}, nil
}

// FromExtension resolves ext against the configured table.
func (r *Resolver) FromExtension(ext string) (mediatype.Type, error) {
	return r.table.Resolve(ext)
}

// FromPath resolves the extension of path against the configured table.
func (r *Resolver) FromPath(path string) (mediatype.Type, error) {
	return r.table.Resolve(extension.PathExt(path))
}

// FromContent sniffs data when the capability is enabled.
func (r *Resolver) FromContent(data []byte) (mediatype.Type, error) {
	if !r.sniff {
		return mediatype.Type{}, fmt.Errorf("%w: content sniffing disabled", magic.ErrUnknownContent)
	}
	return magic.Sniff(data)
}

// Detect is the never-failing chain over the configured capabilities.
func (r *Resolver) Detect(path string, data []byte) mediatype.Type {
	if t, err := r.FromPath(path); err == nil {
		return t
	}
	if r.sniff {
		if t, err := magic.Sniff(data); err == nil {
			return t
		}
	}
	if utils.ValidText(data) {
		return mediatype.Type{Main: "text", Sub: "plain"}
	}
	return mediatype.Type{Main: "application", Sub: "octet-stream"}
}
