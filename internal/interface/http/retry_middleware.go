package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/dupcheck/internal/infra/config"
)

const (
	retryBodyLimit  = 1 << 20
	retryMaxBackoff = 2 * time.Second
	retryAttemptHdr = "X-Retry-Attempts"
)

var errBodyTooLarge = errors.New("request body exceeds retry limit")

// retryPolicy replays POST requests whose handler answered with a transient 5xx.
type retryPolicy struct {
	attempts int
	base     time.Duration
	exclude  []string
	logger   *slog.Logger
}

// withRetry wraps the whole router. Excluded entries match by path prefix.
func withRetry(next http.Handler, cfg config.RetryConfig, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return next
	}
	p := &retryPolicy{
		attempts: cfg.MaxAttempts,
		base:     cfg.BaseBackoff,
		exclude:  cfg.Exclude,
		logger:   logger.With("component", "http.retry"),
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !p.applies(r) {
			next.ServeHTTP(w, r)
			return
		}
		p.serve(next, w, r)
	})
}

func (p *retryPolicy) applies(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	for _, prefix := range p.exclude {
		if prefix != "" && strings.HasPrefix(r.URL.Path, prefix) {
			return false
		}
	}
	return true
}

func (p *retryPolicy) serve(next http.Handler, w http.ResponseWriter, r *http.Request) {
	body, err := bufferBody(r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, err.Error(), status)
		return
	}

	var (
		last  *bufferedResponse
		tried int
	)
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if attempt > 1 && !sleepContext(r.Context(), p.backoff(attempt)) {
			break
		}
		attemptReq := r.Clone(r.Context())
		attemptReq.Body = io.NopCloser(bytes.NewReader(body))
		attemptReq.ContentLength = int64(len(body))

		last = newBufferedResponse()
		tried = attempt
		next.ServeHTTP(last, attemptReq)
		if !transientStatus(last.status) {
			last.flushTo(w, attempt)
			return
		}
		p.logger.Warn("transient failure", "path", r.URL.Path, "status", last.status, "attempt", attempt)
	}
	if last != nil {
		last.flushTo(w, tried)
	}
}

// backoff doubles per attempt starting at base, capped at retryMaxBackoff.
func (p *retryPolicy) backoff(attempt int) time.Duration {
	d := p.base
	for i := 2; i < attempt && d < retryMaxBackoff; i++ {
		d *= 2
	}
	return min(d, retryMaxBackoff)
}

// transientStatus excludes 503 and 501: a missing model or route will not recover between attempts.
func transientStatus(status int) bool {
	switch status {
	case http.StatusServiceUnavailable, http.StatusNotImplemented:
		return false
	}
	return status >= http.StatusInternalServerError
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, retryBodyLimit+1))
	if err != nil {
		return nil, err
	}
	if len(data) > retryBodyLimit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

// bufferedResponse holds one attempt's response until the retry decision is made.
type bufferedResponse struct {
	header http.Header
	body   bytes.Buffer
	status int
	wrote  bool
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), status: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.wrote {
		return
	}
	b.status = status
	b.wrote = true
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.wrote = true
	return b.body.Write(p)
}

func (b *bufferedResponse) Flush() {}

func (b *bufferedResponse) flushTo(w http.ResponseWriter, attempts int) {
	dst := w.Header()
	for k, v := range b.header {
		dst[k] = append([]string(nil), v...)
	}
	if attempts > 1 {
		dst.Set(retryAttemptHdr, strconv.Itoa(attempts))
	}
	w.WriteHeader(b.status)
	if b.body.Len() > 0 {
		_, _ = w.Write(b.body.Bytes())
	}
}
