package api

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/slicetube/slicetube/internal/logging"
	"github.com/slicetube/slicetube/internal/media"
)

// proxyTimeout bounds a single relayed fetch. Previews stream chunk by
// chunk, so this covers the whole response body, not just the dial.
const proxyTimeout = 120 * time.Second

var proxyForwardedResponseHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
}

// proxyHandler relays an upstream CDN URL to the browser. Opaque-platform
// CDNs reject requests without the right Referer and User-Agent, and their
// responses carry no CORS headers, so the preview player cannot fetch them
// directly.
func proxyHandler(cfg ServerConfig) http.HandlerFunc {
	client := &http.Client{Timeout: proxyTimeout}

	return func(w http.ResponseWriter, r *http.Request) {
		rawURL := r.URL.Query().Get("url")
		if rawURL == "" {
			WriteError(w, http.StatusBadRequest, "url parameter is required", "BAD_REQUEST")
			return
		}

		target, err := url.Parse(rawURL)
		if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
			WriteError(w, http.StatusBadRequest, "invalid url parameter", "BAD_REQUEST")
			return
		}

		upstream, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid url parameter", "BAD_REQUEST")
			return
		}
		for k, v := range media.OpaqueFetchHeaders() {
			upstream.Header.Set(k, v)
		}
		upstream.Header.Set("Accept", "*/*")
		upstream.Header.Set("Accept-Language", "en-US,en;q=0.9")
		if rng := r.Header.Get("Range"); rng != "" {
			upstream.Header.Set("Range", rng)
		} else {
			upstream.Header.Set("Range", "bytes=0-")
		}

		resp, err := client.Do(upstream)
		if err != nil {
			cfg.Logger.Warn("proxy fetch failed",
				"url", logging.SanitizeURL(rawURL),
				"error", err,
			)
			WriteError(w, http.StatusBadGateway, "failed to fetch video", "UPSTREAM_ERROR")
			return
		}
		defer resp.Body.Close()

		for _, h := range proxyForwardedResponseHeaders {
			if v := resp.Header.Get(h); v != "" {
				w.Header().Set(h, v)
			}
		}
		setProxyCORSHeaders(w)
		w.WriteHeader(resp.StatusCode)

		if _, err := io.Copy(w, resp.Body); err != nil {
			// client closed the preview mid-stream, nothing to answer
			cfg.Logger.Debug("proxy stream interrupted",
				"url", logging.SanitizeURL(rawURL),
				"error", err,
			)
		}
	}
}

func proxyPreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setProxyCORSHeaders(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func setProxyCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Range")
}
