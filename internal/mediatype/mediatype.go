// Package mediatype provides the parsed media type value used by every
// resolution entry point.
package mediatype

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

// ErrParse indicates a malformed "type/subtype" literal.
var ErrParse = errors.New("malformed media type")

// Type is a parsed media type. Main and Sub are non-empty, lower-cased
// ASCII tokens; Params holds optional parameters with lower-cased keys.
// Values produced by Parse are treated as read-only.
type Type struct {
	Main   string
	Sub    string
	Params map[string]string
}

// Parse parses a "type/subtype[;param=value]" literal. The standard
// library accepts a bare token without a slash, so the split into type
// and subtype is enforced here.
func Parse(s string) (Type, error) {
	mt, params, err := mime.ParseMediaType(s)
	if err != nil {
		return Type{}, fmt.Errorf("%w: %q: %v", ErrParse, s, err)
	}
	main, sub, ok := strings.Cut(mt, "/")
	if !ok {
		return Type{}, fmt.Errorf("%w: %q: missing subtype", ErrParse, s)
	}
	if len(params) == 0 {
		params = nil
	}
	return Type{Main: main, Sub: sub, Params: params}, nil
}

// String renders "type/subtype" plus any parameters.
func (t Type) String() string {
	if len(t.Params) == 0 {
		return t.Main + "/" + t.Sub
	}
	return mime.FormatMediaType(t.Main+"/"+t.Sub, t.Params)
}

// Equal reports whether two media types share type and subtype.
// Parameters are carried as data but excluded from identity.
func (t Type) Equal(o Type) bool {
	return t.Main == o.Main && t.Sub == o.Sub
}

// Is reports whether the media type matches a "type/subtype" literal,
// ignoring case and parameters.
func (t Type) Is(literal string) bool {
	main, sub, ok := strings.Cut(strings.ToLower(literal), "/")
	if !ok {
		return false
	}
	return t.Main == main && t.Sub == sub
}

// IsZero reports whether t is the zero value (no parse has happened).
func (t Type) IsZero() bool {
	return t.Main == "" && t.Sub == ""
}

// IsText reports whether payloads of this type are textual: text/*,
// the json/xml/svg+xml subtypes, and "+json"/"+xml" structured-syntax
// suffixes. The data-URL codec uses this to pick percent encoding over
// base64.
func (t Type) IsText() bool {
	if t.Main == "text" {
		return true
	}
	switch t.Sub {
	case "json", "xml", "svg+xml":
		return true
	}
	return strings.HasSuffix(t.Sub, "+json") || strings.HasSuffix(t.Sub, "+xml")
}
