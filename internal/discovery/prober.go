package discovery

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultHealthTimeout bounds the explicit connectivity check, which is
	// more patient than the per-candidate discovery probes.
	DefaultHealthTimeout = 10 * time.Second

	connectivityPath = "/admin/"
)

// Prober is the explicit connectivity check. It shares the resolver so a
// probe can trigger discovery when no host is known yet.
type Prober struct {
	resolver *Resolver
	client   *http.Client
	timeout  time.Duration
	logger   *zap.Logger
}

// NewProber constructs a prober over the given resolver.
func NewProber(resolver *Resolver, logger *zap.Logger) *Prober {
	return &Prober{
		resolver: resolver,
		client:   &http.Client{},
		timeout:  DefaultHealthTimeout,
		logger:   logger.Named("prober"),
	}
}

// Probe reports whether the backend is reachable right now. It never returns
// an error: resolution failures, transport failures, timeouts, and
// server-error responses all degrade to false.
func (p *Prober) Probe(ctx context.Context) bool {
	host, err := p.resolver.Resolve(ctx)
	if err != nil {
		p.logger.Debug("probe skipped, no host resolved", zap.Error(err))
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, p.resolver.BaseURL(host)+connectivityPath, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("probe request failed", zap.String("host", host), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	reachable := resp.StatusCode < http.StatusInternalServerError
	p.logger.Debug("probe completed", zap.String("host", host), zap.Int("status", resp.StatusCode), zap.Bool("reachable", reachable))
	return reachable
}
