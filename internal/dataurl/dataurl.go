// Package dataurl encodes content bytes plus a media type into the
// "data:" URL form and parses that form back.
//
// Textual payloads travel percent-encoded, binary payloads as standard
// unwrapped base64. Parse accepts both, selected by the ";base64"
// flag, and splits metadata from payload at the last comma so encoded
// payloads containing no raw comma round-trip exactly.
package dataurl

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"git.uuxo.net/uuxo/mime-resolver/internal/extension"
	"git.uuxo.net/uuxo/mime-resolver/internal/magic"
	"git.uuxo.net/uuxo/mime-resolver/internal/mediatype"
)

var (
	// ErrInvalidScheme indicates text that does not begin with "data:".
	ErrInvalidScheme = errors.New("not a data url")
	// ErrDecode indicates a malformed metadata segment or payload.
	ErrDecode = errors.New("malformed data url")
	// ErrIO indicates an unreadable source path.
	ErrIO = errors.New("unreadable path")
)

// Encoding selects how the payload travels inside the URL text.
type Encoding int

const (
	EncodingBase64 Encoding = iota
	EncodingPercent
)

func (e Encoding) String() string {
	if e == EncodingPercent {
		return "percent"
	}
	return "base64"
}

// DataURL couples content bytes with their media type. The value owns
// its bytes; neither construction nor parsing keeps references into
// caller buffers.
type DataURL struct {
	Type     mediatype.Type
	Data     []byte
	Encoding Encoding
}

// FromBytes builds a DataURL for data typed t. Textual types travel
// percent-encoded for shorter output, everything else as base64.
func FromBytes(data []byte, t mediatype.Type) DataURL {
	enc := EncodingBase64
	if t.IsText() {
		enc = EncodingPercent
	}
	return DataURL{Type: t, Data: bytes.Clone(data), Encoding: enc}
}

// FromContent builds a DataURL for data whose type is resolved by
// content sniffing alone.
func FromContent(data []byte) (DataURL, error) {
	t, err := magic.Sniff(data)
	if err != nil {
		return DataURL{}, err
	}
	return FromBytes(data, t), nil
}

// FromPath reads the file at path and builds a DataURL for it. The
// media type comes from the path extension when the table knows it,
// from content sniffing otherwise.
func FromPath(path string) (DataURL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DataURL{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	t, err := extension.ResolvePathLight(path)
	if err != nil {
		if t, err = magic.Sniff(data); err != nil {
			return DataURL{}, err
		}
	}
	return FromBytes(data, t), nil
}

// String renders the textual data URL form.
func (d DataURL) String() string {
	var b strings.Builder
	b.WriteString("data:")
	b.WriteString(d.Type.String())
	if d.Encoding == EncodingPercent {
		b.WriteByte(',')
		b.WriteString(url.PathEscape(string(d.Data)))
	} else {
		b.WriteString(";base64,")
		b.WriteString(base64.StdEncoding.EncodeToString(d.Data))
	}
	return b.String()
}

// Parse decodes the textual data URL form. The metadata segment sits
// between the "data:" prefix and the last comma; an empty segment
// implies text/plain;charset=US-ASCII, and a segment that opens with
// parameters keeps the implied text/plain type.
func Parse(s string) (DataURL, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return DataURL{}, fmt.Errorf("%w: %q", ErrInvalidScheme, clip(s))
	}
	meta, payload, ok := cutLast(rest, ',')
	if !ok {
		return DataURL{}, fmt.Errorf("%w: missing comma separator", ErrDecode)
	}

	enc := EncodingPercent
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		enc = EncodingBase64
		meta = m
	}

	var t mediatype.Type
	switch {
	case meta == "":
		t = defaultType()
	case meta[0] == ';':
		parsed, err := mediatype.Parse("text/plain" + meta)
		if err != nil {
			return DataURL{}, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		t = parsed
	default:
		parsed, err := mediatype.Parse(meta)
		if err != nil {
			return DataURL{}, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		t = parsed
	}

	var data []byte
	if enc == EncodingBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return DataURL{}, fmt.Errorf("%w: bad base64 payload: %v", ErrDecode, err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return DataURL{}, fmt.Errorf("%w: bad percent encoding: %v", ErrDecode, err)
		}
		data = []byte(unescaped)
	}

	return DataURL{Type: t, Data: data, Encoding: enc}, nil
}

// defaultType is what an omitted metadata segment implies.
func defaultType() mediatype.Type {
	return mediatype.Type{
		Main:   "text",
		Sub:    "plain",
		Params: map[string]string{"charset": "US-ASCII"},
	}
}

func cutLast(s string, sep byte) (before, after string, found bool) {
	if i := strings.LastIndexByte(s, sep); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

func clip(s string) string {
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}
