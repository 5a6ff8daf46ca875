// handlers.go - HTTP handlers for the resolution and codec API.

package main

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"git.uuxo.net/uuxo/mime-resolver/internal/auth"
	"git.uuxo.net/uuxo/mime-resolver/internal/cache"
	"git.uuxo.net/uuxo/mime-resolver/internal/dataurl"
	"git.uuxo.net/uuxo/mime-resolver/internal/handlers"
	"git.uuxo.net/uuxo/mime-resolver/internal/history"
	"git.uuxo.net/uuxo/mime-resolver/internal/mediatype"
	"git.uuxo.net/uuxo/mime-resolver/internal/metrics"
	"git.uuxo.net/uuxo/mime-resolver/internal/resolver"
	"git.uuxo.net/uuxo/mime-resolver/internal/scanning"
	"git.uuxo.net/uuxo/mime-resolver/internal/texture"
	"git.uuxo.net/uuxo/mime-resolver/internal/utils"
	"git.uuxo.net/uuxo/mime-resolver/internal/workers"
)

// typeResponse is the JSON shape shared by all type-reporting endpoints.
type typeResponse struct {
	Type     string            `json:"type"`
	Main     string            `json:"main"`
	Sub      string            `json:"sub"`
	Params   map[string]string `json:"params,omitempty"`
	Texture  bool              `json:"texture"`
	Strategy string            `json:"strategy"`
}

func newTypeResponse(t mediatype.Type, strategy string) typeResponse {
	return typeResponse{
		Type:     t.String(),
		Main:     t.Main,
		Sub:      t.Sub,
		Params:   t.Params,
		Texture:  texture.IsTexture(t),
		Strategy: strategy,
	}
}

type encodeResponse struct {
	DataURL   string `json:"data_url"`
	Type      string `json:"type"`
	Encoding  string `json:"encoding"`
	Size      int    `json:"size"`
	Texture   bool   `json:"texture"`
	Strategy  string `json:"strategy"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

type decodeResponse struct {
	Type     string            `json:"type"`
	Main     string            `json:"main"`
	Sub      string            `json:"sub"`
	Params   map[string]string `json:"params,omitempty"`
	Encoding string            `json:"encoding"`
	Size     int               `json:"size"`
	Texture  bool              `json:"texture"`
	Data     string            `json:"data_base64"`
}

// setupRouter builds the HTTP route table.
func setupRouter() *http.ServeMux {
	mux := http.NewServeMux()

	register := func(path string, protected bool, h http.HandlerFunc) {
		var handler http.Handler = h
		if protected && conf.Security.EnableJWT {
			handler = auth.Middleware(conf.Security.JWTSecret, conf.Security.JWTAlgorithm, handler)
		}
		if conf.Server.CORSEnabled {
			handler = handlers.CORSWrapper("", handler.ServeHTTP)
		}
		mux.Handle(path, instrument(path, handler))
	}

	register("/resolve", false, handleResolve)
	register("/texture", false, handleTexture)
	register("/sniff", true, handleSniff)
	register("/dataurl/encode", true, handleEncode)
	register("/dataurl/decode", true, handleDecode)
	register("/history", false, handleHistory)
	register("/stats", false, handleStats)
	register("/health", false, handlers.HealthHandler())
	register("/version", false, handleVersion)

	return mux
}

// instrument counts requests and tracks active connections.
func instrument(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.RequestsTotal.WithLabelValues(r.Method, path).Inc()
		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()
		next.ServeHTTP(w, r)
	})
}

// readPayload reads the request body up to the configured limit.
func readPayload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	limit := maxBodyBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		handlers.WriteJSONError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	if int64(len(data)) > limit {
		handlers.WriteJSONError(w, http.StatusRequestEntityTooLarge, "request body exceeds max_body_size")
		return nil, false
	}
	metrics.PayloadSizeBytes.Observe(float64(len(data)))
	return data, true
}

// detectContent runs the content half of the detection chain.
func detectContent(data []byte) (mediatype.Type, string) {
	if t, err := res.FromContent(data); err == nil {
		return t, "magic"
	}
	if utils.ValidText(data) {
		return mediatype.Type{Main: "text", Sub: "plain"}, "text"
	}
	return mediatype.Type{Main: "application", Sub: "octet-stream"}, "fallback"
}

// detectPayload runs the full detection chain with an optional name hint.
func detectPayload(name string, data []byte) (mediatype.Type, string) {
	if name != "" {
		if t, err := res.FromPath(name); err == nil {
			return t, "extension"
		}
	}
	return detectContent(data)
}

// recordResolution logs a resolution to history via the worker pool.
func recordResolution(t mediatype.Type, strategy, hint, clientIP string, size int64, took time.Duration) {
	if historyStore == nil || workers.GlobalPool == nil {
		return
	}
	isTex := texture.IsTexture(t)
	typeName := t.Main + "/" + t.Sub
	workers.GlobalPool.Submit(workers.Task{Execute: func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := historyStore.Record(ctx, typeName, strategy, hint, clientIP, size, isTex, took); err != nil {
			metrics.HistoryErrorsTotal.Inc()
			return err
		}
		metrics.HistoryWritesTotal.Inc()
		return nil
	}})
}

// handleResolve serves GET /resolve with exactly one of ext, path, or type.
func handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		handlers.WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	ext, path, typeArg := q.Get("ext"), q.Get("path"), q.Get("type")

	table := res
	if name := q.Get("table"); name != "" {
		override, err := resolver.New(resolver.Options{Table: name, Magic: conf.Resolver.Magic})
		if err != nil {
			handlers.WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		table = override
	}

	start := time.Now()

	var (
		t        mediatype.Type
		strategy string
		err      error
	)
	switch {
	case ext != "":
		t, err = table.FromExtension(ext)
		strategy = "extension"
	case path != "":
		t, err = table.FromPath(path)
		strategy = "extension"
	case typeArg != "":
		t, err = resolver.FromString(typeArg)
		strategy = "parse"
	default:
		handlers.WriteJSONError(w, http.StatusBadRequest, "one of ext, path, or type is required")
		return
	}

	if err != nil {
		metrics.ResolutionErrorsTotal.Inc()
		status := http.StatusNotFound
		if errors.Is(err, mediatype.ErrParse) {
			status = http.StatusUnprocessableEntity
		}
		handlers.WriteJSONError(w, status, err.Error())
		return
	}

	took := time.Since(start)
	metrics.ResolutionDuration.Observe(took.Seconds())
	metrics.ResolutionsTotal.WithLabelValues(strategy).Inc()
	recordResolution(t, strategy, firstNonEmpty(ext, path, typeArg), utils.GetClientIP(r), 0, took)

	handlers.WriteJSONResponse(w, http.StatusOK, newTypeResponse(t, strategy))
}

// handleSniff serves POST /sniff with the payload as the request body.
func handleSniff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		handlers.WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	data, ok := readPayload(w, r)
	if !ok {
		return
	}

	start := time.Now()
	metrics.SniffBytes.Observe(float64(len(data)))

	key := cache.Key(data)
	if sniffCache != nil {
		if entry, found := sniffCache.Get(key); found {
			if t, err := mediatype.Parse(entry.Type); err == nil {
				metrics.CacheHitsTotal.Inc()
				w.Header().Set("X-Cache", "HIT")
				handlers.WriteJSONResponse(w, http.StatusOK, newTypeResponse(t, entry.Strategy))
				return
			}
		}
		metrics.CacheMissesTotal.Inc()
		w.Header().Set("X-Cache", "MISS")
	}

	t, strategy := detectContent(data)

	took := time.Since(start)
	metrics.ResolutionDuration.Observe(took.Seconds())
	metrics.ResolutionsTotal.WithLabelValues(strategy).Inc()
	if sniffCache != nil {
		sniffCache.Set(key, cache.Entry{Type: t.String(), Strategy: strategy})
	}
	recordResolution(t, strategy, "", utils.GetClientIP(r), int64(len(data)), took)

	handlers.WriteJSONResponse(w, http.StatusOK, newTypeResponse(t, strategy))
}

// handleEncode serves POST /dataurl/encode. The payload arrives as the
// raw request body; an optional name query supplies an extension hint.
func handleEncode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		handlers.WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	data, ok := readPayload(w, r)
	if !ok {
		return
	}

	policy := GetContentPolicy()
	if perr := policy.CheckSize(int64(len(data))); perr != nil {
		metrics.DataURLErrorsTotal.Inc()
		WritePolicyError(w, perr)
		return
	}

	start := time.Now()
	name := r.URL.Query().Get("name")
	t, strategy := detectPayload(name, data)

	if strategy == "fallback" && policy.Strict() {
		metrics.DataURLErrorsTotal.Inc()
		WritePolicyError(w, &PolicyError{
			Code:    "type_undetected",
			Message: "Content type could not be detected",
		})
		return
	}

	if perr := policy.Check(t); perr != nil {
		metrics.DataURLErrorsTotal.Inc()
		WritePolicyError(w, perr)
		return
	}

	if scanning.ClamClient != nil {
		metrics.ScansTotal.Inc()
		if clean, err := scanning.ScanBytes(data); !clean {
			metrics.ScanFindingsTotal.Inc()
			log.Warnf("Encode rejected by scanner: %v", err)
			handlers.WriteJSONError(w, http.StatusUnprocessableEntity, "payload failed malware scan")
			return
		}
	}

	u := dataurl.FromBytes(data, t)
	resp := encodeResponse{
		DataURL:  u.String(),
		Type:     t.String(),
		Encoding: u.Encoding.String(),
		Size:     len(data),
		Texture:  texture.IsTexture(t),
		Strategy: strategy,
	}

	if wantThumbnail(r) {
		thumbURL, err := GenerateThumbnailDataURL(data, t)
		if err != nil {
			log.Debugf("Thumbnail generation failed: %v", err)
		} else if thumbURL != "" {
			resp.Thumbnail = thumbURL
		}
	}

	took := time.Since(start)
	metrics.DataURLEncodesTotal.Inc()
	metrics.ResolutionDuration.Observe(took.Seconds())
	metrics.ResolutionsTotal.WithLabelValues(strategy).Inc()
	recordResolution(t, strategy, name, utils.GetClientIP(r), int64(len(data)), took)

	handlers.WriteJSONResponse(w, http.StatusOK, resp)
}

// handleDecode serves POST /dataurl/decode with the data URL as the body.
func handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		handlers.WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw, ok := readPayload(w, r)
	if !ok {
		return
	}

	u, err := dataurl.Parse(strings.TrimSpace(string(raw)))
	if err != nil {
		metrics.DataURLErrorsTotal.Inc()
		status := http.StatusUnprocessableEntity
		if errors.Is(err, dataurl.ErrInvalidScheme) {
			status = http.StatusBadRequest
		}
		handlers.WriteJSONError(w, status, err.Error())
		return
	}

	if perr := GetContentPolicy().Check(u.Type); perr != nil {
		metrics.DataURLErrorsTotal.Inc()
		WritePolicyError(w, perr)
		return
	}

	metrics.DataURLDecodesTotal.Inc()

	handlers.WriteJSONResponse(w, http.StatusOK, decodeResponse{
		Type:     u.Type.String(),
		Main:     u.Type.Main,
		Sub:      u.Type.Sub,
		Params:   u.Type.Params,
		Encoding: u.Encoding.String(),
		Size:     len(u.Data),
		Texture:  texture.IsTexture(u.Type),
		Data:     base64.StdEncoding.EncodeToString(u.Data),
	})
}

// handleTexture serves GET /texture?type=image/png.
func handleTexture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		handlers.WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	typeArg := r.URL.Query().Get("type")
	if typeArg == "" {
		handlers.WriteJSONError(w, http.StatusBadRequest, "type parameter is required")
		return
	}

	t, err := mediatype.Parse(typeArg)
	if err != nil {
		handlers.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	handlers.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"type":    t.String(),
		"texture": texture.IsTexture(t),
	})
}

// handleHistory serves GET /history with optional strategy, type,
// limit, and offset filters.
func handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		handlers.WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if historyStore == nil {
		handlers.WriteJSONError(w, http.StatusNotFound, "history is disabled")
		return
	}

	q := r.URL.Query()
	query := history.Query{
		Strategy: q.Get("strategy"),
		Type:     q.Get("type"),
		OrderBy:  q.Get("order_by"),
		OrderDir: strings.ToUpper(q.Get("order_dir")),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			query.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			query.Offset = n
		}
	}

	results, total, err := historyStore.Recent(r.Context(), query)
	if err != nil {
		log.Errorf("History query failed: %v", err)
		handlers.WriteJSONError(w, http.StatusInternalServerError, "history query failed")
		return
	}

	handlers.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"total":   total,
		"results": results,
	})
}

// handleStats serves GET /stats.
func handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		handlers.WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if historyStore == nil {
		handlers.WriteJSONError(w, http.StatusNotFound, "history is disabled")
		return
	}

	stats, err := historyStore.GetStats(r.Context())
	if err != nil {
		log.Errorf("Stats query failed: %v", err)
		handlers.WriteJSONError(w, http.StatusInternalServerError, "stats query failed")
		return
	}

	handlers.WriteJSONResponse(w, http.StatusOK, stats)
}

// handleVersion serves GET /version.
func handleVersion(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSONResponse(w, http.StatusOK, map[string]string{"version": versionString})
}

func wantThumbnail(r *http.Request) bool {
	v := r.URL.Query().Get("thumbnail")
	return v == "1" || v == "true"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
