// Package discovery locates the backend analysis service on the local
// network and remembers the result across restarts.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/foodlens/internal/logging"
)

const (
	// DefaultPort is the port the backend listens on.
	DefaultPort = 8000

	// DefaultProbeTimeout bounds each per-candidate reachability request.
	DefaultProbeTimeout = 3 * time.Second

	probePath = "/"
)

// ErrNoHost reports that no candidate responded during discovery. Nothing is
// cached or persisted in that case, so the next resolve retries from scratch.
var ErrNoHost = errors.New("no backend host discovered")

// Store persists the discovered host across restarts. An empty string from
// Load means no host is stored.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, host string) error
	Delete(ctx context.Context) error
}

// Config tunes discovery. The zero value is usable; empty fields take
// defaults in NewResolver.
type Config struct {
	Port         int
	ProbeTimeout time.Duration
	Fallbacks    []string

	// LocalAddr overrides the device-local address lookup. Nil uses the
	// first non-loopback IPv4 interface address.
	LocalAddr func() string
}

// Resolver discovers and caches the backend address. The in-memory value is
// authoritative while the process lives; the store survives restarts.
type Resolver struct {
	mu   sync.Mutex
	host string

	store  Store
	cfg    Config
	logger *zap.Logger

	// probe reports whether the service at baseURL answered with a status
	// below the server-error class. Replaceable in tests.
	probe func(ctx context.Context, baseURL string) bool
}

// NewResolver constructs a resolver around the given persisted store. A nil
// store disables persistence.
func NewResolver(store Store, cfg Config, logger *zap.Logger) *Resolver {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.Fallbacks == nil {
		cfg.Fallbacks = DefaultFallbacks
	}
	if cfg.LocalAddr == nil {
		cfg.LocalAddr = localIPv4
	}

	r := &Resolver{
		store:  store,
		cfg:    cfg,
		logger: logger.Named("discovery"),
	}
	r.probe = r.httpProbe
	return r
}

// BaseURL returns the service base URL for a resolved host.
func (r *Resolver) BaseURL(host string) string {
	return fmt.Sprintf("http://%s:%d", host, r.cfg.Port)
}

// Resolve returns the backend host, running discovery when nothing is cached.
// It is idempotent and cheap once a host is known: a memory hit performs no
// I/O at all, and a persisted host is adopted without probing.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if host := r.cached(); host != "" {
		return host, nil
	}

	if r.store != nil {
		host, err := r.store.Load(ctx)
		if err != nil {
			r.logger.Warn("host store read failed", zap.Error(err))
		} else if host != "" {
			r.remember(host)
			return host, nil
		}
	}

	return r.discover(ctx)
}

// Set overrides the resolved host manually, writing through to both tiers.
func (r *Resolver) Set(ctx context.Context, host string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return errors.New("host must not be empty")
	}

	r.remember(host)
	if r.store != nil {
		if err := r.store.Save(ctx, host); err != nil {
			return logging.NewOperationError("discovery.set_host", "", err)
		}
	}
	r.logger.Info("host set manually", zap.String("host", host))
	return nil
}

// Clear forgets the resolved host in both tiers. The next resolve runs
// discovery from scratch.
func (r *Resolver) Clear(ctx context.Context) error {
	r.remember("")
	if r.store != nil {
		if err := r.store.Delete(ctx); err != nil {
			return logging.NewOperationError("discovery.clear_host", "", err)
		}
	}
	r.logger.Info("host cleared")
	return nil
}

func (r *Resolver) cached() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

func (r *Resolver) remember(host string) {
	r.mu.Lock()
	r.host = host
	r.mu.Unlock()
}

// discover probes each candidate in priority order and adopts the first one
// that answers. Candidate failures are not errors; they just move the scan
// along. Concurrent discoveries may each probe once, which is harmless: both
// arrive at an equivalent host and the writes are idempotent.
func (r *Resolver) discover(ctx context.Context) (string, error) {
	candidates := buildCandidates(r.cfg.LocalAddr(), r.cfg.Fallbacks)
	r.logger.Debug("starting discovery", zap.Strings("candidates", candidates))

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		probeCtx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
		ok := r.probe(probeCtx, r.BaseURL(candidate))
		cancel()
		if !ok {
			continue
		}

		r.remember(candidate)
		if r.store != nil {
			if err := r.store.Save(ctx, candidate); err != nil {
				r.logger.Warn("failed to persist discovered host", zap.Error(err))
			}
		}
		r.logger.Info("backend host discovered", zap.String("host", candidate))
		return candidate, nil
	}

	r.logger.Info("discovery exhausted all candidates")
	return "", ErrNoHost
}

// httpProbe issues the minimal reachability request. Any response below the
// server-error class counts, including 404 from an unrouted path.
func (r *Resolver) httpProbe(ctx context.Context, baseURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+probePath, nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}
