// Package magic identifies media types from leading content bytes.
//
// A curated signature table is consulted first, in explicit priority
// order, then the external signature database (h2non/filetype). Both
// inspect at most sniffLen bytes.
package magic

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/h2non/filetype"

	"git.uuxo.net/uuxo/mime-resolver/internal/mediatype"
)

// ErrUnknownContent indicates that no signature matched the input.
var ErrUnknownContent = errors.New("unknown content")

// sniffLen bounds how many leading bytes a sniff inspects.
const sniffLen = 1024

// Signature is one content pattern. Pattern is compared at Offset;
// Mask, when set, must have the same length as Pattern and is ANDed
// onto each content byte before comparison. Match, when set, replaces
// the byte comparison entirely and receives the bounded prefix.
// Higher Priority signatures are tried first; ties keep table order.
type Signature struct {
	Type     mediatype.Type
	Offset   int
	Pattern  []byte
	Mask     []byte
	Match    func(data []byte) bool
	Priority int
}

func (s Signature) matches(data []byte) bool {
	if s.Match != nil {
		return s.Match(data)
	}
	if len(s.Pattern) == 0 {
		return false
	}
	end := s.Offset + len(s.Pattern)
	if end > len(data) {
		// A strict prefix of the pattern is a non-match, not an error.
		return false
	}
	for i, want := range s.Pattern {
		got := data[s.Offset+i]
		if s.Mask != nil {
			got &= s.Mask[i]
		}
		if got != want {
			return false
		}
	}
	return true
}

func mt(main, sub string) mediatype.Type {
	return mediatype.Type{Main: main, Sub: sub}
}

// signatures is ordered by descending Priority at init. Scanners that
// must outrank shorter generic patterns sit at 100, container formats
// with a form/brand check at 95, plain magic numbers at 90, weaker or
// shorter patterns below that. The masked MP3 frame-sync entry is the
// weakest pattern in the table and goes last.
var signatures = []Signature{
	// Document scanners
	{Type: mt("text", "html"), Match: htmlDoc, Priority: 100},
	{Type: mt("image", "svg+xml"), Match: svgDoc, Priority: 100},

	// Container formats that need a form or brand check
	{Type: mt("image", "webp"), Match: riffForm("WEBP"), Priority: 95},
	{Type: mt("audio", "wav"), Match: riffForm("WAVE"), Priority: 95},
	{Type: mt("video", "x-msvideo"), Match: riffForm("AVI "), Priority: 95},
	{Type: mt("video", "mp4"), Match: ftypBrand("isom", "iso2", "mp41", "mp42", "mp4v", "avc1", "dash"), Priority: 95},
	{Type: mt("video", "quicktime"), Match: ftypBrand("qt  "), Priority: 95},
	{Type: mt("image", "avif"), Match: ftypBrand("avif", "avis"), Priority: 95},
	{Type: mt("image", "heic"), Match: ftypBrand("heic", "heix", "hevc", "hevx"), Priority: 95},

	// Plain magic numbers
	{Type: mt("image", "png"), Pattern: []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, Priority: 90},
	{Type: mt("image", "jpeg"), Pattern: []byte{0xff, 0xd8, 0xff}, Priority: 90},
	{Type: mt("image", "gif"), Pattern: []byte("GIF8"), Priority: 90},
	{Type: mt("image", "tiff"), Pattern: []byte{'I', 'I', 0x2a, 0x00}, Priority: 90},
	{Type: mt("image", "tiff"), Pattern: []byte{'M', 'M', 0x00, 0x2a}, Priority: 90},
	{Type: mt("application", "pdf"), Pattern: []byte("%PDF-"), Priority: 90},
	{Type: mt("application", "x-executable"), Pattern: []byte{0x7f, 'E', 'L', 'F'}, Priority: 90}, // ELF
	{Type: mt("application", "x-xz"), Pattern: []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}, Priority: 90},
	{Type: mt("application", "x-7z-compressed"), Pattern: []byte{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c}, Priority: 90},
	{Type: mt("application", "vnd.rar"), Pattern: []byte{'R', 'a', 'r', '!', 0x1a, 0x07}, Priority: 90},
	{Type: mt("application", "wasm"), Pattern: []byte{0x00, 'a', 's', 'm'}, Priority: 90},
	{Type: mt("audio", "flac"), Pattern: []byte("fLaC"), Priority: 90},
	{Type: mt("audio", "ogg"), Pattern: []byte("OggS"), Priority: 90},
	{Type: mt("audio", "midi"), Pattern: []byte("MThd"), Priority: 90},

	// Short or ambiguous patterns
	{Type: mt("audio", "mpeg"), Pattern: []byte("ID3"), Priority: 80},
	{Type: mt("text", "xml"), Pattern: []byte("<?xml"), Priority: 80},
	{Type: mt("text", "x-shellscript"), Pattern: []byte("#!"), Priority: 80},
	{Type: mt("application", "zip"), Pattern: []byte{'P', 'K', 0x03, 0x04}, Priority: 70},
	{Type: mt("application", "gzip"), Pattern: []byte{0x1f, 0x8b}, Priority: 70},
	{Type: mt("application", "x-bzip2"), Pattern: []byte("BZh"), Priority: 70},
	{Type: mt("application", "x-msdos-program"), Pattern: []byte{'M', 'Z'}, Priority: 60},
	{Type: mt("image", "bmp"), Pattern: []byte{'B', 'M'}, Priority: 50},
	{Type: mt("image", "x-icon"), Pattern: []byte{0x00, 0x00, 0x01, 0x00}, Priority: 50},

	// MP3 frame sync: 11 set bits across two bytes, no framing header
	{Type: mt("audio", "mpeg"), Pattern: []byte{0xff, 0xe0}, Mask: []byte{0xff, 0xe0}, Priority: 10},
}

func init() {
	sort.SliceStable(signatures, func(i, j int) bool {
		return signatures[i].Priority > signatures[j].Priority
	})
}

// riffForm matches a RIFF container carrying the given four-byte form.
func riffForm(form string) func([]byte) bool {
	return func(data []byte) bool {
		return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == form
	}
}

// ftypBrand matches an ISO base media file whose major brand is one of
// the given four-byte brands.
func ftypBrand(brands ...string) func([]byte) bool {
	return func(data []byte) bool {
		if len(data) < 12 || string(data[4:8]) != "ftyp" {
			return false
		}
		brand := string(data[8:12])
		for _, b := range brands {
			if brand == b {
				return true
			}
		}
		return false
	}
}

var htmlTags = [][]byte{
	[]byte("<!doctype html"),
	[]byte("<html"),
	[]byte("<head"),
	[]byte("<body"),
}

// htmlDoc reports whether data opens with a document-level HTML tag,
// case-insensitively, after leading whitespace.
func htmlDoc(data []byte) bool {
	data = bytes.TrimLeft(data, " \t\r\n")
	for _, tag := range htmlTags {
		if len(data) < len(tag) {
			continue
		}
		if !bytes.EqualFold(data[:len(tag)], tag) {
			continue
		}
		if len(data) == len(tag) {
			return true
		}
		switch data[len(tag)] {
		case ' ', '\t', '\r', '\n', '>':
			return true
		}
	}
	return false
}

// svgDoc reports whether data is a markup document containing an svg
// root element. It outranks the generic XML declaration pattern so an
// SVG with an XML prolog resolves as SVG.
func svgDoc(data []byte) bool {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 || data[0] != '<' {
		return false
	}
	return bytes.Contains(data, []byte("<svg"))
}

// Sniff matches data against the signature table and then the external
// signature database. Only the first sniffLen bytes are inspected.
// Content nothing matches yields ErrUnknownContent; short input is
// never an error.
func Sniff(data []byte) (mediatype.Type, error) {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	for _, sig := range signatures {
		if sig.matches(data) {
			return sig.Type, nil
		}
	}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return mediatype.Type{Main: kind.MIME.Type, Sub: kind.MIME.Subtype}, nil
	}
	return mediatype.Type{}, fmt.Errorf("%w: no signature matched %d-byte prefix", ErrUnknownContent, len(data))
}

// SniffReader reads at most sniffLen bytes from r and sniffs them.
func SniffReader(r io.Reader) (mediatype.Type, error) {
	buf, err := io.ReadAll(io.LimitReader(r, sniffLen))
	if err != nil {
		return mediatype.Type{}, fmt.Errorf("read sniff prefix: %w", err)
	}
	return Sniff(buf)
}
