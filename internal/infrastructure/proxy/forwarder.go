package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nodegate/internal/core/domain"

	"go.uber.org/zap"
)

// Collector is the subset of the metrics collector the forwarder uses.
// A nil Collector disables metrics.
type Collector interface {
	RecordProxyRequest(statusCode int, duration time.Duration)
	BridgeOpened()
	BridgeClosed()
}

// Forwarder relays caller requests to a node's upstream API. The caller's
// Authorization header never crosses the boundary; the upstream trusts the
// gateway through the shared admin token instead.
type Forwarder struct {
	client       *http.Client
	sharedSecret string
	metrics      Collector
	logger       *zap.SugaredLogger
}

func NewForwarder(sharedSecret string, requestTimeout, responseHeaderTimeout time.Duration, metrics Collector, logger *zap.SugaredLogger) *Forwarder {
	return &Forwarder{
		client: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				ResponseHeaderTimeout: responseHeaderTimeout,
				MaxIdleConnsPerHost:   8,
			},
		},
		sharedSecret: sharedSecret,
		metrics:      metrics,
		logger:       logger,
	}
}

// target joins the node's base URL with the caller's sub-path and pins the
// result to the node's host, so a crafted path cannot redirect the gateway
// to another origin.
func (f *Forwarder) target(node *domain.Node, subPath, rawQuery string) (*url.URL, error) {
	base, err := url.Parse(node.APIURL)
	if err != nil {
		return nil, fmt.Errorf("node %s has an invalid apiUrl: %w", node.ID, err)
	}

	joined := *base
	joined.Path = strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(subPath, "/")
	joined.RawQuery = scrubQuery(rawQuery)

	resolved := base.ResolveReference(&joined)
	if resolved.Scheme != base.Scheme || resolved.Host != base.Host {
		return nil, fmt.Errorf("path %q escapes the node origin", subPath)
	}
	return resolved, nil
}

// scrubQuery strips the session token from a forwarded query string.
// EventSource clients authenticate with ?token=, and that credential
// must stay on the gateway side of the boundary. An unparseable query
// is dropped entirely.
func scrubQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return ""
	}
	values.Del("token")
	return values.Encode()
}

// Forward relays one request/response exchange and writes the upstream's
// status and body to w. Upstream failures surface as a 500 with a generic
// message; upstream detail goes to the log, not the caller.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, node *domain.Node, subPath string) {
	target, err := f.target(node, subPath, r.URL.RawQuery)
	if err != nil {
		f.logger.Warnw("rejected proxy target",
			"node_id", node.ID,
			"path", subPath,
			"error", err,
		)
		writeProxyError(w)
		return
	}

	var body io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		body = r.Body
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), body)
	if err != nil {
		writeProxyError(w)
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	} else {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-admin-token", f.sharedSecret)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warnw("upstream request failed",
			"node_id", node.ID,
			"target", target.String(),
			"error", err,
		)
		writeProxyError(w)
		return
	}
	defer resp.Body.Close()

	if f.metrics != nil {
		f.metrics.RecordProxyRequest(resp.StatusCode, time.Since(start))
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		f.logger.Debugw("copying upstream body aborted", "node_id", node.ID, "error", err)
	}
}

// Do issues one upstream request and returns the response to the caller,
// for handlers that need to inspect the body before relaying it. The
// caller owns resp.Body.
func (f *Forwarder) Do(ctx context.Context, node *domain.Node, method, subPath string, body io.Reader) (*http.Response, error) {
	target, err := f.target(node, subPath, "")
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-admin-token", f.sharedSecret)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if f.metrics != nil {
		f.metrics.RecordProxyRequest(resp.StatusCode, time.Since(start))
	}
	return resp, nil
}

// Bridge opens a long-lived event stream against the node and pumps its
// chunks to the caller, flushing each one. It returns when either side
// closes: the caller through r.Context(), the upstream through EOF.
func (f *Forwarder) Bridge(w http.ResponseWriter, r *http.Request, node *domain.Node, stream string) {
	target, err := f.target(node, "live/"+stream, r.URL.RawQuery)
	if err != nil {
		f.logger.Warnw("rejected bridge target",
			"node_id", node.ID,
			"stream", stream,
			"error", err,
		)
		writeProxyError(w)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProxyError(w)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		writeProxyError(w)
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("x-admin-token", f.sharedSecret)

	// The pooled client enforces a whole-request timeout, which would cut
	// the stream off. Bridges use a dedicated client with header timeout
	// only.
	client := &http.Client{
		Transport: &http.Transport{
			ResponseHeaderTimeout: f.client.Transport.(*http.Transport).ResponseHeaderTimeout,
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		f.logger.Warnw("upstream stream failed",
			"node_id", node.ID,
			"target", target.String(),
			"error", err,
		)
		writeProxyError(w)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		w.WriteHeader(resp.StatusCode)
		io.Copy(w, resp.Body)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if f.metrics != nil {
		f.metrics.BridgeOpened()
		defer f.metrics.BridgeClosed()
	}

	f.pump(r.Context(), w, flusher, resp.Body)
}

func (f *Forwarder) pump(ctx context.Context, w io.Writer, flusher http.Flusher, upstream io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := upstream.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			flusher.Flush()
		}
		if err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func writeProxyError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "Failed to proxy request to node"})
}
