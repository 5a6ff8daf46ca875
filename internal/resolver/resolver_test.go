package resolver

import (
	"errors"
	"testing"

	"git.uuxo.net/uuxo/mime-resolver/internal/extension"
	"git.uuxo.net/uuxo/mime-resolver/internal/magic"
	"git.uuxo.net/uuxo/mime-resolver/internal/mediatype"
)

var pngSample = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x11, 0x45, 0x14, 0x19, 0x19, 0x81, 0x00}

func TestFromPathLight(t *testing.T) {
	got, err := FromPathLight("index.html")
	if err != nil {
		t.Fatalf("FromPathLight unexpected error: %v", err)
	}
	if !got.Is("text/html") {
		t.Errorf("FromPathLight(index.html) = %s, want text/html", got)
	}
}

func TestFromString(t *testing.T) {
	got, err := FromString("image/png")
	if err != nil {
		t.Fatalf("FromString unexpected error: %v", err)
	}
	if !IsTexture(got) {
		t.Error("IsTexture(image/png) = false, want true")
	}

	got, err = FromString("application/json")
	if err != nil {
		t.Fatalf("FromString unexpected error: %v", err)
	}
	if IsTexture(got) {
		t.Error("IsTexture(application/json) = true, want false")
	}

	if _, err := FromString("textplain"); !errors.Is(err, mediatype.ErrParse) {
		t.Errorf("FromString(textplain) error = %v, want ErrParse", err)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		path string
		data []byte
		want string
	}{
		{"extension wins", "report.pdf", nil, "application/pdf"},
		{"full table covers light gaps", "film.mkv", nil, "video/x-matroska"},
		{"content fallback", "capture", pngSample, "image/png"},
		{"text fallback", "notes", []byte("plain utf-8 text"), "text/plain"},
		{"binary fallback", "blob", []byte{0x81, 0x82, 0x83}, "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.path, tt.data); !got.Is(tt.want) {
				t.Errorf("Detect(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolverTables(t *testing.T) {
	light, err := New(Options{Table: "light"})
	if err != nil {
		t.Fatal(err)
	}
	full, err := New(Options{Table: "full"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := light.FromExtension("mkv"); !errors.Is(err, extension.ErrUnknownExtension) {
		t.Errorf("light FromExtension(mkv) error = %v, want ErrUnknownExtension", err)
	}
	got, err := full.FromExtension("mkv")
	if err != nil {
		t.Fatalf("full FromExtension(mkv) unexpected error: %v", err)
	}
	if !got.Is("video/x-matroska") {
		t.Errorf("full FromExtension(mkv) = %s, want video/x-matroska", got)
	}

	if _, err := New(Options{Table: "sparse"}); err == nil {
		t.Error("New(unknown table) = nil error, want error")
	}
}

func TestResolverMagicCapability(t *testing.T) {
	sniffing, err := New(Options{Magic: true})
	if err != nil {
		t.Fatal(err)
	}
	plain, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}

	got, err := sniffing.FromContent(pngSample)
	if err != nil {
		t.Fatalf("FromContent unexpected error: %v", err)
	}
	if !got.Is("image/png") {
		t.Errorf("FromContent = %s, want image/png", got)
	}

	if _, err := plain.FromContent(pngSample); !errors.Is(err, magic.ErrUnknownContent) {
		t.Errorf("disabled FromContent error = %v, want ErrUnknownContent", err)
	}

	// With sniffing off the png bytes are just non-text content.
	if got := plain.Detect("capture", pngSample); !got.Is("application/octet-stream") {
		t.Errorf("plain Detect = %s, want application/octet-stream", got)
	}
	if got := sniffing.Detect("capture", pngSample); !got.Is("image/png") {
		t.Errorf("sniffing Detect = %s, want image/png", got)
	}
}
