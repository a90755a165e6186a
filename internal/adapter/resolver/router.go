// Package resolver dispatches content locators to the resolver of their scheme.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// Passthrough resolves http(s) locators to themselves.
type Passthrough struct{}

// Resolve implements ports.LocatorResolver.
func (Passthrough) Resolve(ctx context.Context, locator string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.NewResolutionError(locator, err)
	}
	return locator, nil
}

// Router picks a resolver by locator scheme.
//
// Thread-safety: This implementation is thread-safe.
type Router struct {
	logger *slog.Logger

	mu     sync.RWMutex
	routes map[string]ports.LocatorResolver
}

// NewRouter creates a router that knows http and https.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Router{
		logger: logger.With(slog.String("adapter", "resolver")),
		routes: make(map[string]ports.LocatorResolver),
	}
	r.Handle("http", Passthrough{})
	r.Handle("https", Passthrough{})
	return r
}

// Handle registers res for scheme, replacing any previous registration.
func (r *Router) Handle(scheme string, res ports.LocatorResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[strings.ToLower(scheme)] = res
}

// Schemes returns the registered schemes.
func (r *Router) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.routes))
	for s := range r.routes {
		out = append(out, s)
	}
	return out
}

// Resolve implements ports.LocatorResolver.
func (r *Router) Resolve(ctx context.Context, locator string) (string, error) {
	scheme, _, ok := strings.Cut(locator, "://")
	if !ok {
		return "", domain.NewResolutionError(locator, fmt.Errorf("no scheme: %w", domain.ErrUnsupportedScheme))
	}

	r.mu.RLock()
	res, found := r.routes[strings.ToLower(scheme)]
	r.mu.RUnlock()
	if !found {
		return "", domain.NewResolutionError(locator, fmt.Errorf("%s: %w", scheme, domain.ErrUnsupportedScheme))
	}

	url, err := res.Resolve(ctx, locator)
	if err != nil {
		r.logger.Debug("resolve failed", slog.String("locator", locator), slog.Any("error", err))
		return "", err
	}
	return url, nil
}

var _ ports.LocatorResolver = (*Router)(nil)
