// Package httpserver provides the http endpoint for metrics exposition and profiling.
package httpserver

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"pagetrack/lib/logger"
	"pagetrack/lib/netutil"
)

var disableResponseCompression = flag.Bool("http.disableResponseCompression", false, "Disable compression of HTTP responses for saving CPU resources. "+
	"By default compression is enabled to save network bandwidth")

// RequestHandler must serve the given request r and write response to w.
//
// RequestHandler must return true if the request has been served (successfully or not).
//
// RequestHandler must return false if it cannot serve the given request.
// In such cases the caller must serve the request.
type RequestHandler func(w http.ResponseWriter, r *http.Request) bool

var (
	serversMu sync.Mutex
	servers   = make(map[string]*http.Server)
)

// Serve starts an http server on the given addr with the given optional rh.
//
// Responses are transparently compressed if the client supports gzip encoding.
// The compression may be disabled either with -http.disableResponseCompression
// or by calling DisableResponseCompression before the first write to w.
func Serve(addr string, rh RequestHandler) {
	logger.Infof("starting http server at http://%s/", addr)
	logger.Infof("pprof handlers are exposed at http://%s/debug/pprof/", addr)
	ln, err := netutil.NewTCPListener("http", addr)
	if err != nil {
		logger.Fatalf("cannot start http server at %s: %s", addr, err)
	}
	serveWithListener(addr, ln, rh)
}

func serveWithListener(addr string, ln net.Listener, rh RequestHandler) {
	s := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handleRequest(w, r, rh)
		}),

		// Disable http/2, since it isn't needed for the metrics endpoint.
		TLSNextProto: make(map[string]func(*http.Server, *tls.Conn, http.Handler)),

		// Protect from broken networks and from clients keeping idle connections forever.
		ReadHeaderTimeout: time.Minute,
		IdleTimeout:       time.Minute,

		ErrorLog: logger.StdErrorLogger(),
	}
	serversMu.Lock()
	servers[addr] = s
	serversMu.Unlock()
	if err := s.Serve(ln); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("cannot serve http at %s: %s", addr, err)
	}
}

// Stop gracefully stops the http server started via Serve on the given addr.
func Stop(addr string) error {
	serversMu.Lock()
	s := servers[addr]
	delete(servers, addr)
	serversMu.Unlock()
	if s == nil {
		logger.Panicf("BUG: there is no http server at %q", addr)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("cannot gracefully shutdown http server at %q: %w", addr, err)
	}
	return nil
}

func handleRequest(w http.ResponseWriter, r *http.Request, rh RequestHandler) {
	requestsTotal.Inc()
	w = maybeGzipResponseWriter(w, r)
	defer func() {
		if zrw, ok := w.(*gzipResponseWriter); ok {
			if err := zrw.Close(); err != nil && !isTrivialNetworkError(err) {
				logger.Errorf("cannot finalize gzipped response: %s", err)
			}
		}
	}()

	path := r.URL.Path
	switch path {
	case "/health":
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("OK"))
		return
	case "/metrics":
		startTime := time.Now()
		metricsRequests.Inc()
		w.Header().Set("Content-Type", "text/plain")
		writePrometheusMetrics(w)
		metricsHandlerDuration.UpdateDuration(startTime)
		return
	case "/favicon.ico":
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if strings.HasPrefix(path, "/debug/pprof/") {
		pprofRequests.Inc()
		// Profiles are binary data, so compressing them makes little sense.
		DisableResponseCompression(w)
		pprofHandler(path[len("/debug/pprof/"):], w, r)
		return
	}
	if rh != nil && rh(w, r) {
		return
	}
	unsupportedRequestErrors.Inc()
	Errorf(w, "unsupported path requested: %q", path)
}

var (
	requestsTotal   = metrics.NewCounter(`pagetrack_http_requests_all_total`)
	metricsRequests = metrics.NewCounter(`pagetrack_http_requests_total{path="/metrics"}`)
	pprofRequests   = metrics.NewCounter(`pagetrack_http_requests_total{path="/debug/pprof/"}`)

	unsupportedRequestErrors = metrics.NewCounter(`pagetrack_http_request_errors_total{reason="unsupported"}`)

	metricsHandlerDuration = metrics.NewHistogram(`pagetrack_http_request_duration_seconds{path="/metrics"}`)
)

func pprofHandler(profileName string, w http.ResponseWriter, r *http.Request) {
	switch profileName {
	case "cmdline":
		pprof.Cmdline(w, r)
	case "profile":
		pprof.Profile(w, r)
	case "symbol":
		pprof.Symbol(w, r)
	case "trace":
		pprof.Trace(w, r)
	default:
		pprof.Index(w, r)
	}
}

func maybeGzipResponseWriter(w http.ResponseWriter, r *http.Request) http.ResponseWriter {
	if *disableResponseCompression {
		return w
	}
	if !strings.Contains(strings.ToLower(r.Header.Get("Accept-Encoding")), "gzip") {
		return w
	}
	w.Header().Set("Content-Encoding", "gzip")
	return &gzipResponseWriter{
		ResponseWriter: w,
	}
}

// DisableResponseCompression disables response compression on w.
//
// The function must be called before the first w.Write* call.
func DisableResponseCompression(w http.ResponseWriter) {
	w.Header().Del("Content-Encoding")
}

// gzipResponseWriter compresses the response body.
//
// The underlying gzip writer is lazily initialized on the first Write call,
// so request handlers may still opt out of the compression
// via DisableResponseCompression until then.
type gzipResponseWriter struct {
	http.ResponseWriter

	zw         *gzip.Writer
	statusCode int
	passthru   bool
}

func (zrw *gzipResponseWriter) Write(p []byte) (int, error) {
	if zrw.zw == nil && !zrw.passthru {
		h := zrw.Header()
		if h.Get("Content-Encoding") != "gzip" {
			// The request handler opted out of the compression.
			zrw.passthru = true
		} else {
			if h.Get("Content-Type") == "" {
				// Auto-detection doesn't work on compressed data.
				h.Set("Content-Type", "text/html")
			}
			zrw.zw = getGzipWriter(zrw.ResponseWriter)
		}
	}
	if zrw.statusCode == 0 {
		zrw.WriteHeader(http.StatusOK)
	}
	if zrw.passthru {
		return zrw.ResponseWriter.Write(p)
	}
	return zrw.zw.Write(p)
}

func (zrw *gzipResponseWriter) WriteHeader(statusCode int) {
	if zrw.statusCode != 0 {
		return
	}
	if statusCode == http.StatusNoContent {
		DisableResponseCompression(zrw.ResponseWriter)
		zrw.passthru = true
	}
	zrw.ResponseWriter.WriteHeader(statusCode)
	zrw.statusCode = statusCode
}

// Flush implements http.Flusher
func (zrw *gzipResponseWriter) Flush() {
	if zrw.zw != nil {
		if err := zrw.zw.Flush(); err != nil && !isTrivialNetworkError(err) {
			logger.Errorf("cannot flush gzipped response: %s", err)
		}
	}
	if fw, ok := zrw.ResponseWriter.(http.Flusher); ok {
		fw.Flush()
	}
}

func (zrw *gzipResponseWriter) Close() error {
	if zrw.zw == nil {
		// Nothing has been written or the compression was disabled.
		zrw.Header().Del("Content-Encoding")
		return nil
	}
	err := zrw.zw.Close()
	putGzipWriter(zrw.zw)
	zrw.zw = nil
	return err
}

var gzipWriterPool sync.Pool

func getGzipWriter(w io.Writer) *gzip.Writer {
	v := gzipWriterPool.Get()
	if v == nil {
		zw, err := gzip.NewWriterLevel(w, 1)
		if err != nil {
			logger.Panicf("BUG: cannot create gzip writer: %s", err)
		}
		return zw
	}
	zw := v.(*gzip.Writer)
	zw.Reset(w)
	return zw
}

func putGzipWriter(zw *gzip.Writer) {
	gzipWriterPool.Put(zw)
}

// Errorf writes the formatted error message to w and to the error log.
//
// The client receives http.StatusBadRequest.
func Errorf(w http.ResponseWriter, format string, args ...any) {
	errStr := fmt.Sprintf(format, args...)
	logger.ErrorfSkipframes(1, "%s", errStr)
	http.Error(w, errStr, http.StatusBadRequest)
}

func isTrivialNetworkError(err error) bool {
	s := err.Error()
	return strings.Contains(s, "broken pipe") || strings.Contains(s, "reset by peer")
}
