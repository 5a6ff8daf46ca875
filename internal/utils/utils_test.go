package utils

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"10KB", 10 * 1024, false},
		{"5MB", 5 * 1024 * 1024, false},
		{"1GB", 1024 * 1024 * 1024, false},
		{" 2MB ", 2 * 1024 * 1024, false},
		{"10TB", 0, true},
		{"MB", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30s", 30 * time.Second, false},
		{"15m", 15 * time.Minute, false},
		{"24h", 24 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"1y", 365 * 24 * time.Hour, false},
		{"", 0, true},
		{"10q", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTTL(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTTL(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTTL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:4242"
	if got := GetClientIP(r); got != "10.0.0.1" {
		t.Errorf("GetClientIP remote addr = %q, want 10.0.0.1", got)
	}

	r.Header.Set("X-Real-IP", "192.168.1.5")
	if got := GetClientIP(r); got != "192.168.1.5" {
		t.Errorf("GetClientIP X-Real-IP = %q, want 192.168.1.5", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := GetClientIP(r); got != "203.0.113.7" {
		t.Errorf("GetClientIP X-Forwarded-For = %q, want 203.0.113.7", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidText(t *testing.T) {
	if !ValidText([]byte("plain ascii")) {
		t.Error("ValidText(ascii) = false, want true")
	}
	if !ValidText([]byte("unicode: €💡")) {
		t.Error("ValidText(multibyte) = false, want true")
	}
	if ValidText([]byte{0xff, 0xfe, 0x00}) {
		t.Error("ValidText(binary) = true, want false")
	}
	if !ValidText(nil) {
		t.Error("ValidText(nil) = false, want true")
	}
}

func TestValidTextBounded(t *testing.T) {
	// The euro sign is three bytes; cutting it mid-sequence at the
	// bound must not flag the data as binary.
	data := []byte("price: €5")
	cut := len("price: ") + 2
	if !ValidTextBounded(data, cut) {
		t.Error("ValidTextBounded(truncated rune at bound) = false, want true")
	}

	if ValidTextBounded([]byte{'a', 0xff, 'b'}, 0) {
		t.Error("ValidTextBounded(invalid byte, unbounded) = true, want false")
	}
	if !ValidTextBounded([]byte{'a', 'b', 0xff}, 2) {
		t.Error("ValidTextBounded(invalid byte past bound) = false, want true")
	}
	if ValidTextBounded([]byte{0xe2, 0x82, 'a'}, 0) {
		t.Error("ValidTextBounded(broken sequence mid-data) = true, want false")
	}
}

func TestSanitizeFilePath(t *testing.T) {
	base := t.TempDir()

	got, err := SanitizeFilePath(base, "sub/file.bin")
	if err != nil {
		t.Fatalf("SanitizeFilePath unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, base) {
		t.Errorf("SanitizeFilePath = %q, want prefix %q", got, base)
	}

	if _, err := SanitizeFilePath(base, "../escape.bin"); err == nil {
		t.Error("SanitizeFilePath(traversal) = nil error, want error")
	}
}

func TestContains(t *testing.T) {
	if !Contains([]string{"a", "b"}, "b") {
		t.Error("Contains = false, want true")
	}
	if Contains([]string{"a", "b"}, "c") {
		t.Error("Contains = true, want false")
	}
	if Contains(nil, "a") {
		t.Error("Contains(nil) = true, want false")
	}
}

var benchText = []byte(strings.Repeat("The quick brown fox jumps over the lazy dog. €5 please. ", 18))

func BenchmarkValidText(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if !ValidText(benchText) {
			b.Fatal("unexpected invalid text")
		}
	}
}

func BenchmarkValidTextBounded(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if !ValidTextBounded(benchText, 512) {
			b.Fatal("unexpected invalid text")
		}
	}
}
