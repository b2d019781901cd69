package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mohammed-shakir/lkw-route-density/internal/core/observability"
)

const maxBody = 8 << 20

// StatusError carries the upstream status of a failed call.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrProvider }

// DoJSON waits for the limiter, sends req once and decodes a 2xx JSON body into
// out. Every failure wraps ErrProvider.
func DoJSON(ctx context.Context, opts Options, name string, req *http.Request, out any) (err error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		if err != nil && outcome == "ok" {
			outcome = "error"
		}
		observability.ObserveProviderCall(name, outcome, time.Since(start).Seconds())
	}()

	if opts.Limiter != nil {
		if werr := opts.Limiter.Wait(ctx); werr != nil {
			outcome = "throttled"
			return fmt.Errorf("%w: %s rate limit wait: %v", ErrProvider, name, werr)
		}
	}

	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	resp, err := opts.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			outcome = "timeout"
		}
		return fmt.Errorf("%w: %s request: %v", ErrProvider, name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: %s read body: %v", ErrProvider, name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = fmt.Sprintf("status_%dxx", resp.StatusCode/100)
		return &StatusError{Provider: name, Status: resp.StatusCode, Body: snippet(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		outcome = "malformed"
		return fmt.Errorf("%w: %s decode response: %v", ErrProvider, name, err)
	}
	return nil
}

func snippet(b []byte) string {
	const n = 256
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
