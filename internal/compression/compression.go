// Package compression provides CPU-aware gzip compression for HTTP
// responses. Encode responses carry base64 payloads that inflate the
// body by a third, so compressing them back down is worth a pass
// through the encoder when the client accepts it.
//
// The gzip level follows the CPU's SIMD tier: wide-vector machines
// absorb a higher level without hurting latency, while software-only
// hosts get the cheapest setting.
package compression

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"git.uuxo.net/uuxo/mime-resolver/internal/cpufeatures"
)

// MinSize is the smallest response body worth compressing. Anything
// below it ships uncompressed; a gzip header plus dictionary overhead
// would cancel the gain.
const MinSize = 1 << 10

// LevelFor maps a CPU feature set to a gzip level. Separated from
// Level for testing.
func LevelFor(f *cpufeatures.Features) int {
	switch f.SIMDTier() {
	case "wide":
		return 6
	case "sse":
		return 5
	case "baseline":
		return 4
	default:
		return gzip.BestSpeed
	}
}

// Level returns the gzip level selected for the current hardware.
func Level() int {
	return LevelFor(cpufeatures.Detect())
}

var writerPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, Level())
		return w
	},
}

// responseWriter defers the compress-or-not decision until MinSize
// bytes have been written, then streams the rest through gzip.
type responseWriter struct {
	http.ResponseWriter

	status  int
	buf     []byte
	gz      *gzip.Writer
	decided bool
	plain   bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.decided {
		if w.plain {
			return w.ResponseWriter.Write(p)
		}
		return w.gz.Write(p)
	}

	w.buf = append(w.buf, p...)
	if len(w.buf) < MinSize {
		return len(p), nil
	}

	// Upstream handlers that set their own Content-Encoding ship as-is
	if w.Header().Get("Content-Encoding") != "" {
		if err := w.startPlain(); err != nil {
			return 0, err
		}
		return len(p), nil
	}

	if err := w.startGzip(); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *responseWriter) startGzip() error {
	w.decided = true
	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Del("Content-Length")
	w.writeHeader()

	w.gz = writerPool.Get().(*gzip.Writer)
	w.gz.Reset(w.ResponseWriter)

	_, err := w.gz.Write(w.buf)
	w.buf = nil
	return err
}

func (w *responseWriter) startPlain() error {
	w.decided = true
	w.plain = true
	w.writeHeader()

	_, err := w.ResponseWriter.Write(w.buf)
	w.buf = nil
	return err
}

func (w *responseWriter) writeHeader() {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.ResponseWriter.WriteHeader(w.status)
}

// Close flushes whichever path was taken. Short responses that never
// reached MinSize go out uncompressed here.
func (w *responseWriter) Close() error {
	if !w.decided {
		w.decided = true
		w.plain = true
		w.writeHeader()
		if len(w.buf) > 0 {
			_, err := w.ResponseWriter.Write(w.buf)
			w.buf = nil
			return err
		}
		return nil
	}
	if w.plain {
		return nil
	}
	err := w.gz.Close()
	writerPool.Put(w.gz)
	w.gz = nil
	return err
}

// Middleware compresses responses for clients that accept gzip.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !acceptsGzip(r) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Accept-Encoding")
		cw := &responseWriter{ResponseWriter: w}
		defer cw.Close()
		next.ServeHTTP(cw, r)
	})
}

func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if enc == "gzip" || enc == "*" {
			return true
		}
	}
	return false
}
