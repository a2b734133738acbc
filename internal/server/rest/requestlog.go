package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"

	maxLoggedBody   = 500
	maxCapturedBody = 64 << 10
	masked          = "***"
)

var unloggedPaths = map[string]struct{}{
	"/docs":                 {},
	"/redoc":                {},
	"/openapi.json":         {},
	"/docs/oauth2-redirect": {},
}

var sensitiveHeaders = map[string]struct{}{
	"authorization": {},
	"cookie":        {},
	"x-api-key":     {},
}

var sensitiveFields = map[string]struct{}{
	"password":   {},
	"secret":     {},
	"token":      {},
	"api_key":    {},
	"apikey":     {},
	"credential": {},
}

// logRequests logs one line when a request arrives and one when it
// completes. Headers, query parameters and bodies go to the debug level and
// are masked unless the server runs in debug mode.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, skip := unloggedPaths[r.URL.Path]; skip {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := logging.WithRequestID(r.Context(), id)
		r = r.WithContext(ctx)
		w.Header().Set(RequestIDHeader, id)

		s.logger.Info(ctx, "request", "method", r.Method, "path", r.URL.Path)
		s.logger.Debug(ctx, "request headers", "headers", s.logValue(headerMap(r.Header), maskHeaders))
		if r.URL.RawQuery != "" {
			s.logger.Debug(ctx, "request params", "params", s.logValue(flatten(r.URL.Query()), maskFields))
		}

		var reqBody bytes.Buffer
		if r.Body != nil {
			r.Body = &capturingBody{ReadCloser: r.Body, buf: &reqBody}
		}
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		if reqBody.Len() > 0 {
			body := parseBody(reqBody.Bytes(), r.Header.Get("Content-Type"))
			s.logger.Debug(ctx, "request body", "body", s.logValue(body, maskFields))
		}
		s.logger.Info(ctx, "response",
			"status", rec.Status(),
			"duration_ms", float64(time.Since(start).Microseconds())/1000,
		)
		if rec.body.Len() > 0 {
			body := parseBody(rec.body.Bytes(), rec.Header().Get("Content-Type"))
			s.logger.Debug(ctx, "response body", "body", s.logValue(body, maskFields))
		}
	})
}

// logValue renders v as JSON for the log, masked outside debug mode.
func (s *Server) logValue(v any, mask func(any) any) string {
	if !s.debug {
		v = mask(v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func headerMap(h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}

func maskHeaders(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		if _, secret := sensitiveHeaders[strings.ToLower(k)]; secret {
			out[k] = masked
			continue
		}
		out[k] = val
	}
	return out
}

// maskFields replaces sensitive keys at any depth.
func maskFields(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if _, secret := sensitiveFields[strings.ToLower(k)]; secret {
				out[k] = masked
				continue
			}
			out[k] = maskFields(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = maskFields(val)
		}
		return out
	default:
		return v
	}
}

func flatten(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			out[k] = v[0]
			continue
		}
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		out[k] = items
	}
	return out
}

// parseBody decodes JSON and urlencoded bodies; anything else is logged
// as a truncated string.
func parseBody(body []byte, contentType string) any {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/json":
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
	case "application/x-www-form-urlencoded":
		if values, err := url.ParseQuery(string(body)); err == nil {
			return flatten(values)
		}
	}
	return truncate(string(body))
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxLoggedBody {
		return s
	}
	return string(r[:maxLoggedBody]) + "..."
}

type capturingBody struct {
	io.ReadCloser
	buf *bytes.Buffer
}

func (b *capturingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if room := maxCapturedBody - b.buf.Len(); room > 0 && n > 0 {
		b.buf.Write(p[:min(n, room)])
	}
	return n, err
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	if room := maxCapturedBody - r.body.Len(); room > 0 {
		r.body.Write(p[:min(len(p), room)])
	}
	return r.ResponseWriter.Write(p)
}

func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
