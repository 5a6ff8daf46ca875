package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"git.uuxo.net/uuxo/mime-resolver/internal/cache"
	"git.uuxo.net/uuxo/mime-resolver/internal/config"
	"git.uuxo.net/uuxo/mime-resolver/internal/history"
	"git.uuxo.net/uuxo/mime-resolver/internal/metrics"
	"git.uuxo.net/uuxo/mime-resolver/internal/resolver"
	"git.uuxo.net/uuxo/mime-resolver/internal/workers"
)

var testRouter http.Handler

var pngHeader = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x11, 0x45, 0x14, 0x19, 0x19, 0x81, 0x00}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	metrics.InitMetrics()

	tmpDir, err := os.MkdirTemp("", "mime-resolver-handlers-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "temp dir: %v\n", err)
		os.Exit(1)
	}

	conf = config.DefaultConfig()
	conf.Security.EnableJWT = false
	conf.Server.CORSEnabled = false
	conf.RateLimit.Enabled = false
	conf.Policy = DefaultPolicyConfig()
	InitContentPolicy(&conf.Policy)

	res, err = resolver.New(resolver.Options{Table: "light", Magic: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolver: %v\n", err)
		os.Exit(1)
	}

	sniffCache, err = cache.New(
		&config.CacheConfig{Enabled: true, TTL: "1m", CleanupInterval: "1m"},
		&config.RedisConfig{},
		nil,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cache: %v\n", err)
		os.Exit(1)
	}

	historyStore, err = history.Open(filepath.Join(tmpDir, "resolutions.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		os.Exit(1)
	}

	workers.InitializeWorkerSettings(&conf.Workers)

	InitThumbnails(&config.ThumbnailsConfig{
		Enabled:   true,
		Directory: filepath.Join(tmpDir, "thumbs"),
		Width:     16,
		Height:    16,
		Quality:   70,
	})

	maxBodyBytes = 1 << 20
	versionString = "test"

	testRouter = setupRouter()

	code := m.Run()

	historyStore.Close()
	sniffCache.Close()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func doRequest(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rr := httptest.NewRecorder()
	testRouter.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(into); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

// realPNG produces a small decodable PNG image.
func realPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestHandleResolve(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantType   string
		wantStrat  string
	}{
		{"extension", "/resolve?ext=png", http.StatusOK, "image/png", "extension"},
		{"extension dotted", "/resolve?ext=.html", http.StatusOK, "text/html", "extension"},
		{"path", "/resolve?path=/srv/media/clip.mp4", http.StatusOK, "video/mp4", "extension"},
		{"path uppercase", "/resolve?path=C:%5CPHOTOS%5CSUMMER.JPG", http.StatusOK, "image/jpeg", "extension"},
		{"type parse", "/resolve?type=text%2Fhtml%3B%20charset%3Dutf-8", http.StatusOK, "text/html; charset=utf-8", "parse"},
		{"full table override", "/resolve?ext=png&table=full", http.StatusOK, "image/png", "extension"},
		{"unknown extension", "/resolve?ext=zzzyyyxxx", http.StatusNotFound, "", ""},
		{"unparseable type", "/resolve?type=nonsense", http.StatusUnprocessableEntity, "", ""},
		{"bad table name", "/resolve?ext=png&table=bogus", http.StatusBadRequest, "", ""},
		{"no arguments", "/resolve", http.StatusBadRequest, "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, http.MethodGet, tc.target, nil)
			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rr.Code, tc.wantStatus, rr.Body.String())
			}
			if tc.wantType == "" {
				return
			}
			var resp typeResponse
			decodeBody(t, rr, &resp)
			if resp.Type != tc.wantType {
				t.Errorf("type = %q, want %q", resp.Type, tc.wantType)
			}
			if resp.Strategy != tc.wantStrat {
				t.Errorf("strategy = %q, want %q", resp.Strategy, tc.wantStrat)
			}
		})
	}
}

func TestHandleResolveTextureFlag(t *testing.T) {
	rr := doRequest(t, http.MethodGet, "/resolve?ext=png", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp typeResponse
	decodeBody(t, rr, &resp)
	if !resp.Texture {
		t.Error("image/png should report texture=true")
	}

	rr = doRequest(t, http.MethodGet, "/resolve?ext=svg", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	decodeBody(t, rr, &resp)
	if resp.Texture {
		t.Error("image/svg+xml should report texture=false")
	}
}

func TestHandleSniff(t *testing.T) {
	payload := append(append([]byte{}, pngHeader...), 0xAA, 0xBB)

	rr := doRequest(t, http.MethodPost, "/sniff", payload)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", got)
	}
	var resp typeResponse
	decodeBody(t, rr, &resp)
	if resp.Type != "image/png" {
		t.Errorf("type = %q, want image/png", resp.Type)
	}
	if resp.Strategy != "magic" {
		t.Errorf("strategy = %q, want magic", resp.Strategy)
	}

	rr = doRequest(t, http.MethodPost, "/sniff", payload)
	if rr.Code != http.StatusOK {
		t.Fatalf("second status = %d, want 200", rr.Code)
	}
	if got := rr.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}
	decodeBody(t, rr, &resp)
	if resp.Type != "image/png" || resp.Strategy != "magic" {
		t.Errorf("cached response = %q/%q, want image/png/magic", resp.Type, resp.Strategy)
	}
}

func TestHandleSniffTextAndFallback(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/sniff", []byte("hello, plain text content\n"))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		var resp typeResponse
		decodeBody(t, rr, &resp)
		if resp.Type != "text/plain" {
			t.Errorf("type = %q, want text/plain", resp.Type)
		}
		if resp.Strategy != "text" {
			t.Errorf("strategy = %q, want text", resp.Strategy)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/sniff", []byte{0x00, 0x01, 0x02, 0xfe, 0xff, 0x00})
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		var resp typeResponse
		decodeBody(t, rr, &resp)
		if resp.Type != "application/octet-stream" {
			t.Errorf("type = %q, want application/octet-stream", resp.Type)
		}
		if resp.Strategy != "fallback" {
			t.Errorf("strategy = %q, want fallback", resp.Strategy)
		}
	})
}

func TestHandleEncode(t *testing.T) {
	t.Run("binary with name hint", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/dataurl/encode?name=shot.png", pngHeader)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
		}
		var resp encodeResponse
		decodeBody(t, rr, &resp)
		if !strings.HasPrefix(resp.DataURL, "data:image/png;base64,") {
			t.Errorf("data_url = %q, want data:image/png;base64, prefix", resp.DataURL)
		}
		if resp.Type != "image/png" {
			t.Errorf("type = %q, want image/png", resp.Type)
		}
		if resp.Encoding != "base64" {
			t.Errorf("encoding = %q, want base64", resp.Encoding)
		}
		if resp.Size != len(pngHeader) {
			t.Errorf("size = %d, want %d", resp.Size, len(pngHeader))
		}
		if !resp.Texture {
			t.Error("png payload should report texture=true")
		}
		if resp.Strategy != "extension" {
			t.Errorf("strategy = %q, want extension", resp.Strategy)
		}
	})

	t.Run("binary without hint uses magic", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/dataurl/encode", pngHeader)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		var resp encodeResponse
		decodeBody(t, rr, &resp)
		if resp.Strategy != "magic" {
			t.Errorf("strategy = %q, want magic", resp.Strategy)
		}
	})

	t.Run("text travels percent encoded", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/dataurl/encode", []byte("plain words"))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		var resp encodeResponse
		decodeBody(t, rr, &resp)
		if resp.Encoding != "percent" {
			t.Errorf("encoding = %q, want percent", resp.Encoding)
		}
		if !strings.HasPrefix(resp.DataURL, "data:text/plain,") {
			t.Errorf("data_url = %q, want data:text/plain, prefix", resp.DataURL)
		}
	})

	t.Run("blocked type rejected", func(t *testing.T) {
		elf := []byte{0x7f, 'E', 'L', 'F', 0x02, 0x01, 0x01, 0x00}
		rr := doRequest(t, http.MethodPost, "/dataurl/encode", elf)
		if rr.Code != http.StatusUnsupportedMediaType {
			t.Fatalf("status = %d, want 415 (body: %s)", rr.Code, rr.Body.String())
		}
		var perr PolicyError
		decodeBody(t, rr, &perr)
		if perr.Code != "content_type_blocked" {
			t.Errorf("error code = %q, want content_type_blocked", perr.Code)
		}
	})

	t.Run("undetected type rejected", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/dataurl/encode", []byte{0x00, 0x01, 0xfe, 0xff})
		if rr.Code != http.StatusUnsupportedMediaType {
			t.Fatalf("status = %d, want 415", rr.Code)
		}
		var perr PolicyError
		decodeBody(t, rr, &perr)
		if perr.Code != "content_type_rejected" {
			t.Errorf("error code = %q, want content_type_rejected", perr.Code)
		}
	})

	t.Run("undetected type in strict mode", func(t *testing.T) {
		conf.Policy.StrictMode = true
		defer func() { conf.Policy.StrictMode = false }()

		rr := doRequest(t, http.MethodPost, "/dataurl/encode", []byte{0x00, 0x01, 0xfe, 0xff})
		if rr.Code != http.StatusUnsupportedMediaType {
			t.Fatalf("status = %d, want 415", rr.Code)
		}
		var perr PolicyError
		decodeBody(t, rr, &perr)
		if perr.Code != "type_undetected" {
			t.Errorf("error code = %q, want type_undetected", perr.Code)
		}
	})
}

func TestHandleEncodeThumbnail(t *testing.T) {
	t.Run("decodable image", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/dataurl/encode?thumbnail=1", realPNG(t))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
		}
		var resp encodeResponse
		decodeBody(t, rr, &resp)
		if !strings.HasPrefix(resp.Thumbnail, "data:image/jpeg;base64,") {
			t.Errorf("thumbnail = %q, want data:image/jpeg;base64, prefix", resp.Thumbnail)
		}
	})

	t.Run("undecodable image omits thumbnail", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/dataurl/encode?thumbnail=1", pngHeader)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		var resp encodeResponse
		decodeBody(t, rr, &resp)
		if resp.Thumbnail != "" {
			t.Errorf("thumbnail = %q, want empty", resp.Thumbnail)
		}
	})

	t.Run("not requested", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/dataurl/encode", realPNG(t))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		var resp encodeResponse
		decodeBody(t, rr, &resp)
		if resp.Thumbnail != "" {
			t.Errorf("thumbnail = %q, want empty without thumbnail=1", resp.Thumbnail)
		}
	})
}

func TestHandleDecode(t *testing.T) {
	t.Run("base64 round trip", func(t *testing.T) {
		url := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
		rr := doRequest(t, http.MethodPost, "/dataurl/decode", []byte(url))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
		}
		var resp decodeResponse
		decodeBody(t, rr, &resp)
		if resp.Type != "image/png" {
			t.Errorf("type = %q, want image/png", resp.Type)
		}
		if resp.Encoding != "base64" {
			t.Errorf("encoding = %q, want base64", resp.Encoding)
		}
		if resp.Size != len(pngHeader) {
			t.Errorf("size = %d, want %d", resp.Size, len(pngHeader))
		}
		decoded, err := base64.StdEncoding.DecodeString(resp.Data)
		if err != nil {
			t.Fatalf("data_base64 does not decode: %v", err)
		}
		if !bytes.Equal(decoded, pngHeader) {
			t.Error("decoded payload does not match original")
		}
	})

	t.Run("percent encoded default type", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/dataurl/decode", []byte("data:,Hello%20World"))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
		}
		var resp decodeResponse
		decodeBody(t, rr, &resp)
		if resp.Type != "text/plain; charset=US-ASCII" {
			t.Errorf("type = %q, want text/plain; charset=US-ASCII", resp.Type)
		}
		if resp.Encoding != "percent" {
			t.Errorf("encoding = %q, want percent", resp.Encoding)
		}
		decoded, _ := base64.StdEncoding.DecodeString(resp.Data)
		if string(decoded) != "Hello World" {
			t.Errorf("payload = %q, want Hello World", decoded)
		}
	})

	t.Run("wrong scheme", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/dataurl/decode", []byte("https://example.com/image.png"))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("corrupt base64", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/dataurl/decode", []byte("data:image/png;base64,!!!notbase64!!!"))
		if rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", rr.Code)
		}
	})

	t.Run("blocked type", func(t *testing.T) {
		rr := doRequest(t, http.MethodPost, "/dataurl/decode", []byte("data:application/x-executable;base64,AAAA"))
		if rr.Code != http.StatusUnsupportedMediaType {
			t.Errorf("status = %d, want 415", rr.Code)
		}
	})
}

func TestHandleTexture(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		wantStatus  int
		wantTexture bool
	}{
		{"png", "/texture?type=image%2Fpng", http.StatusOK, true},
		{"video", "/texture?type=video%2Fmp4", http.StatusOK, true},
		{"svg excluded", "/texture?type=image%2Fsvg%2Bxml", http.StatusOK, false},
		{"pdf", "/texture?type=application%2Fpdf", http.StatusOK, false},
		{"missing type", "/texture", http.StatusBadRequest, false},
		{"unparseable", "/texture?type=garbage", http.StatusUnprocessableEntity, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, http.MethodGet, tc.target, nil)
			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			if tc.wantStatus != http.StatusOK {
				return
			}
			var resp struct {
				Texture bool `json:"texture"`
			}
			decodeBody(t, rr, &resp)
			if resp.Texture != tc.wantTexture {
				t.Errorf("texture = %v, want %v", resp.Texture, tc.wantTexture)
			}
		})
	}
}

func TestHandleHistory(t *testing.T) {
	ctx := context.Background()
	seed := []struct {
		typ      string
		strategy string
		size     int64
	}{
		{"application/x-histprobe", "magic", 100},
		{"application/x-histprobe", "extension", 200},
	}
	for _, s := range seed {
		if err := historyStore.Record(ctx, s.typ, s.strategy, "probe", "127.0.0.1", s.size, false, time.Millisecond); err != nil {
			t.Fatalf("failed to seed history: %v", err)
		}
	}

	t.Run("filter by type", func(t *testing.T) {
		rr := doRequest(t, http.MethodGet, "/history?type=application%2Fx-histprobe", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
		}
		var resp struct {
			Total   int64                `json:"total"`
			Results []history.Resolution `json:"results"`
		}
		decodeBody(t, rr, &resp)
		if resp.Total != 2 {
			t.Errorf("total = %d, want 2", resp.Total)
		}
		if len(resp.Results) != 2 {
			t.Fatalf("results = %d rows, want 2", len(resp.Results))
		}
		for _, r := range resp.Results {
			if r.Type != "application/x-histprobe" {
				t.Errorf("unexpected row type %q", r.Type)
			}
		}
	})

	t.Run("filter by strategy", func(t *testing.T) {
		rr := doRequest(t, http.MethodGet, "/history?type=application%2Fx-histprobe&strategy=magic", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		var resp struct {
			Total int64 `json:"total"`
		}
		decodeBody(t, rr, &resp)
		if resp.Total != 1 {
			t.Errorf("total = %d, want 1", resp.Total)
		}
	})

	t.Run("limit", func(t *testing.T) {
		rr := doRequest(t, http.MethodGet, "/history?type=application%2Fx-histprobe&limit=1", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		var resp struct {
			Total   int64                `json:"total"`
			Results []history.Resolution `json:"results"`
		}
		decodeBody(t, rr, &resp)
		if resp.Total != 2 {
			t.Errorf("total = %d, want 2", resp.Total)
		}
		if len(resp.Results) != 1 {
			t.Errorf("results = %d rows, want 1", len(resp.Results))
		}
	})

	t.Run("disabled", func(t *testing.T) {
		saved := historyStore
		historyStore = nil
		defer func() { historyStore = saved }()

		rr := doRequest(t, http.MethodGet, "/history", nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})
}

func TestHandleStats(t *testing.T) {
	rr := doRequest(t, http.MethodGet, "/stats", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	var stats history.Stats
	decodeBody(t, rr, &stats)
	if stats.TotalResolutions < 2 {
		t.Errorf("total_resolutions = %d, want >= 2", stats.TotalResolutions)
	}
	if stats.ByStrategy == nil {
		t.Error("by_strategy missing from stats")
	}
}

func TestHandleVersion(t *testing.T) {
	rr := doRequest(t, http.MethodGet, "/version", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp map[string]string
	decodeBody(t, rr, &resp)
	if resp["version"] != "test" {
		t.Errorf("version = %q, want test", resp["version"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	rr := doRequest(t, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if body := rr.Body.String(); body != "OK" {
		t.Errorf("body = %q, want OK", body)
	}
}

func TestBodyLimit(t *testing.T) {
	saved := maxBodyBytes
	maxBodyBytes = 64
	defer func() { maxBodyBytes = saved }()

	rr := doRequest(t, http.MethodPost, "/sniff", bytes.Repeat([]byte{0x41}, 100))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		method string
		target string
	}{
		{http.MethodPost, "/resolve"},
		{http.MethodGet, "/sniff"},
		{http.MethodGet, "/dataurl/encode"},
		{http.MethodGet, "/dataurl/decode"},
		{http.MethodPost, "/texture"},
		{http.MethodPost, "/history"},
		{http.MethodPost, "/stats"},
	}

	for _, tc := range tests {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			rr := doRequest(t, tc.method, tc.target, []byte("x"))
			if rr.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", rr.Code)
			}
		})
	}
}

func TestProtectedRoutesRequireJWT(t *testing.T) {
	conf.Security.EnableJWT = true
	conf.Security.JWTSecret = "handlers-test-secret"
	conf.Security.JWTAlgorithm = "HS256"
	defer func() { conf.Security.EnableJWT = false }()

	authRouter := setupRouter()

	serve := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/sniff", bytes.NewReader(pngHeader))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rr := httptest.NewRecorder()
		authRouter.ServeHTTP(rr, req)
		return rr
	}

	t.Run("missing token", func(t *testing.T) {
		rr := serve("")
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
		if got := rr.Header().Get("WWW-Authenticate"); !strings.Contains(got, "Bearer") {
			t.Errorf("WWW-Authenticate = %q, want Bearer challenge", got)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub": "tester",
			"exp": time.Now().Add(time.Hour).Unix(),
			"iat": time.Now().Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("handlers-test-secret"))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		rr := serve(token)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
		}
	})

	t.Run("open route stays open", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/resolve?ext=png", nil)
		rr := httptest.NewRecorder()
		authRouter.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})
}
