package mediatype

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		main    string
		sub     string
		wantErr bool
	}{
		{name: "plain", input: "text/plain", main: "text", sub: "plain"},
		{name: "upper case folded", input: "IMAGE/PNG", main: "image", sub: "png"},
		{name: "structured suffix", input: "image/svg+xml", main: "image", sub: "svg+xml"},
		{name: "with params", input: "text/html; charset=UTF-8", main: "text", sub: "html"},
		{name: "surrounding space", input: " text/css ", main: "text", sub: "css"},
		{name: "no slash", input: "textplain", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "missing type", input: "/plain", wantErr: true},
		{name: "missing subtype", input: "text/", wantErr: true},
		{name: "extra segment", input: "text/plain/extra", wantErr: true},
		{name: "space in token", input: "te xt/plain", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error", tt.input, got)
				}
				if !errors.Is(err, ErrParse) {
					t.Errorf("Parse(%q) error = %v, want ErrParse", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got.Main != tt.main || got.Sub != tt.sub {
				t.Errorf("Parse(%q) = %s/%s, want %s/%s", tt.input, got.Main, got.Sub, tt.main, tt.sub)
			}
		})
	}
}

func TestParseParams(t *testing.T) {
	got, err := Parse("text/plain;charset=US-ASCII")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Params["charset"] != "US-ASCII" {
		t.Errorf("charset = %q, want US-ASCII", got.Params["charset"])
	}

	bare, err := Parse("text/plain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bare.Params != nil {
		t.Errorf("Params = %v, want nil for a bare literal", bare.Params)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"text/html", "text/html"},
		{"Text/HTML", "text/html"},
		{"text/html; charset=utf-8", "text/html; charset=utf-8"},
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		if err != nil {
			t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
		}
		if got.String() != tt.want {
			t.Errorf("Parse(%q).String() = %q, want %q", tt.input, got.String(), tt.want)
		}
	}
}

func TestEqualIgnoresParams(t *testing.T) {
	a, _ := Parse("text/plain; charset=utf-8")
	b, _ := Parse("TEXT/PLAIN")
	if !a.Equal(b) {
		t.Errorf("Equal(%v, %v) = false, want true", a, b)
	}
	c, _ := Parse("text/html")
	if a.Equal(c) {
		t.Errorf("Equal(%v, %v) = true, want false", a, c)
	}
}

func TestIs(t *testing.T) {
	ty, _ := Parse("image/png")
	if !ty.Is("IMAGE/PNG") {
		t.Error("Is(IMAGE/PNG) = false, want true")
	}
	if ty.Is("image/jpeg") {
		t.Error("Is(image/jpeg) = true, want false")
	}
	if ty.Is("png") {
		t.Error("Is(png) = true, want false for a slash-less literal")
	}
}

func TestIsText(t *testing.T) {
	tests := []struct {
		literal string
		want    bool
	}{
		{"text/plain", true},
		{"text/html", true},
		{"application/json", true},
		{"image/svg+xml", true},
		{"text/xml", true},
		{"application/ld+json", true},
		{"application/xhtml+xml", true},
		{"application/octet-stream", false},
		{"application/pdf", false},
		{"image/png", false},
		{"image/bmp", false},
	}
	for _, tt := range tests {
		ty, err := Parse(tt.literal)
		if err != nil {
			t.Fatalf("Parse(%q) unexpected error: %v", tt.literal, err)
		}
		if got := ty.IsText(); got != tt.want {
			t.Errorf("IsText(%s) = %v, want %v", tt.literal, got, tt.want)
		}
	}
}
