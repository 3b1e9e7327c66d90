package delivery

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hookfreight/hookfreight/endpoint"
	"github.com/hookfreight/hookfreight/event"
)

// forwardHeaderAllowlist is the small set of original request headers
// carried through to the destination. Everything else is dropped.
var forwardHeaderAllowlist = []string{
	"Content-Type",
	"Content-Encoding",
	"Accept",
	"User-Agent",
}

// Result holds the raw outcome of one dispatch, before classification.
type Result struct {
	StatusCode int // zero if no response was received
	Headers    http.Header
	Body       []byte
	DurationMs int
	TimedOut   bool
	Err        error // transport or response-body read error; nil otherwise, even on non-2xx
}

// Sender performs the outbound HTTP forward for one delivery attempt. It is
// safe for concurrent use: its client is configured once at construction
// and never mutated afterward.
type Sender struct {
	client *http.Client
}

// NewSender creates a sender. timeout, if positive, is a client-wide ceiling
// on every request regardless of destination (mainly useful for tests); in
// production the per-attempt deadline comes from each endpoint's own
// http_timeout_ms, applied in Send, so callers typically pass 0 here.
func NewSender(timeout time.Duration) *Sender {
	return &Sender{client: &http.Client{Timeout: timeout}}
}

// Send dispatches evt's original method and body, verbatim, to forwardURL,
// carrying the allow-listed headers plus forwarding markers and the
// endpoint's authentication override. The per-attempt deadline comes from
// ep.Timeout(), applied as a context deadline for this call alone — Sender
// is shared across concurrent workers, so the timeout must never be stored
// on (or mutate) the shared client.
func (s *Sender) Send(ctx context.Context, forwardURL string, ep *endpoint.Endpoint, evt *event.Event) Result {
	if timeout := ep.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, evt.Method, forwardURL, bytes.NewReader(evt.Body))
	if err != nil {
		return Result{Err: err}
	}
	req.Header = buildForwardHeaders(evt.Headers, ep.Authentication)

	start := time.Now()
	resp, err := s.client.Do(req) //nolint:gosec // forward_url is an operator-configured destination by design.
	duration := time.Since(start)

	if err != nil {
		timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeoutError(err)
		return Result{
			DurationMs: int(duration.Milliseconds()),
			TimedOut:   timedOut,
			Err:        err,
		}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if readErr != nil && readErr != io.EOF {
		return Result{
			StatusCode: resp.StatusCode,
			Headers:    resp.Header,
			DurationMs: int(duration.Milliseconds()),
			Err:        readErr,
		}
	}

	return Result{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		DurationMs: int(duration.Milliseconds()),
	}
}

// buildForwardHeaders copies the allow-listed headers (collapsed to their
// first value), adds the forwarding markers, then applies the endpoint's
// static authentication header last so it always wins.
func buildForwardHeaders(original http.Header, auth *endpoint.Authentication) http.Header {
	out := make(http.Header)
	for _, name := range forwardHeaderAllowlist {
		if v := original.Get(name); v != "" {
			out.Set(name, v)
		}
	}
	out.Set("X-Hookfreight-Forwarded", "true")
	out.Set("X-Hookfreight-Timestamp", time.Now().UTC().Format(time.RFC3339))

	if auth != nil && auth.HeaderName != "" {
		out.Set(auth.HeaderName, auth.HeaderValue)
	}
	return out
}

type timeoutError interface {
	Timeout() bool
}

func isTimeoutError(err error) bool {
	var te timeoutError
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}
