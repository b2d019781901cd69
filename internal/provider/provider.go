// Package provider talks to external routing services that compute truck paths.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"golang.org/x/time/rate"

	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
)

// ErrProvider marks every failure of a routing call: transport, timeout,
// non-success status, or an unusable response.
var ErrProvider = errors.New("routing provider error")

// Router computes a heavy-goods road path between two canonical coordinates.
type Router interface {
	Name() string
	Route(ctx context.Context, start, end model.Coordinate) (model.Geometry, error)
}

type Options struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	// Limiter enforces the provider quota; nil means unlimited.
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

// NewLimiter returns nil for rps <= 0.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

type Factory func(opts Options) (Router, error)

const DefaultName = "ors"

var (
	mu  sync.RWMutex
	reg = map[string]Factory{}
)

func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	reg[name] = f
}

// Names lists registered providers, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(reg))
	for n := range reg {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// New builds the named provider, falling back to DefaultName when unknown.
func New(name string, opts Options) (Router, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HTTP == nil {
		opts.HTTP = http.DefaultClient
	}
	mu.RLock()
	f, ok := reg[name]
	def, hasDef := reg[DefaultName]
	mu.RUnlock()

	if ok {
		return f(opts)
	}
	if hasDef {
		opts.Logger.Warn("unknown routing provider; falling back", "provider", name, "fallback", DefaultName)
		return def(opts)
	}
	return nil, fmt.Errorf("no factory for provider %q and no %s registered", name, DefaultName)
}
