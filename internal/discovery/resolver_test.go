package discovery

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"go.uber.org/zap"
)

type stubStore struct {
	host    string
	loadErr error

	loadCalls int
	saved     []string
	deleted   int
}

func (s *stubStore) Load(ctx context.Context) (string, error) {
	s.loadCalls++
	return s.host, s.loadErr
}

func (s *stubStore) Save(ctx context.Context, host string) error {
	s.saved = append(s.saved, host)
	s.host = host
	return nil
}

func (s *stubStore) Delete(ctx context.Context) error {
	s.deleted++
	s.host = ""
	return nil
}

func newTestResolver(store Store, cfg Config) *Resolver {
	if cfg.LocalAddr == nil {
		cfg.LocalAddr = func() string { return "" }
	}
	return NewResolver(store, cfg, zap.NewNop())
}

func TestResolveUsesMemoryCacheWithoutProbing(t *testing.T) {
	store := &stubStore{}
	r := newTestResolver(store, Config{})

	probes := 0
	r.probe = func(ctx context.Context, baseURL string) bool {
		probes++
		return true
	}

	if err := r.Set(context.Background(), "192.168.1.7"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	store.loadCalls = 0

	for i := 0; i < 3; i++ {
		host, err := r.Resolve(context.Background())
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if host != "192.168.1.7" {
			t.Fatalf("expected cached host, got %q", host)
		}
	}

	if probes != 0 {
		t.Fatalf("expected zero probes on memory hit, got %d", probes)
	}
	if store.loadCalls != 0 {
		t.Fatalf("expected zero store reads on memory hit, got %d", store.loadCalls)
	}
}

func TestResolveAdoptsPersistedHostWithoutProbing(t *testing.T) {
	store := &stubStore{host: "10.1.2.3"}
	r := newTestResolver(store, Config{})

	probes := 0
	r.probe = func(ctx context.Context, baseURL string) bool {
		probes++
		return true
	}

	host, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if host != "10.1.2.3" {
		t.Fatalf("expected persisted host, got %q", host)
	}
	if probes != 0 {
		t.Fatalf("expected zero probes when adopting persisted host, got %d", probes)
	}

	// Adopted into memory: the next resolve skips the store too.
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if store.loadCalls != 1 {
		t.Fatalf("expected one store read, got %d", store.loadCalls)
	}
}

func TestResolveAllCandidatesUnreachable(t *testing.T) {
	store := &stubStore{}
	r := newTestResolver(store, Config{LocalAddr: func() string { return "192.168.1.42" }})

	firstRound := 0
	r.probe = func(ctx context.Context, baseURL string) bool {
		firstRound++
		return false
	}

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrNoHost) {
		t.Fatalf("expected ErrNoHost, got %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatalf("expected no persisted writes, got %v", store.saved)
	}

	// Nothing was cached, so the next resolve probes from scratch.
	secondRound := 0
	r.probe = func(ctx context.Context, baseURL string) bool {
		secondRound++
		return false
	}
	if _, err := r.Resolve(context.Background()); !errors.Is(err, ErrNoHost) {
		t.Fatalf("expected ErrNoHost again, got %v", err)
	}
	if secondRound != firstRound {
		t.Fatalf("expected full re-discovery (%d probes), got %d", firstRound, secondRound)
	}
}

func TestResolvePicksFirstRespondingCandidate(t *testing.T) {
	store := &stubStore{}
	r := newTestResolver(store, Config{LocalAddr: func() string { return "192.168.1.42" }})

	var probed []string
	r.probe = func(ctx context.Context, baseURL string) bool {
		probed = append(probed, baseURL)
		return baseURL == r.BaseURL("192.168.1.1")
	}

	host, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if host != "192.168.1.1" {
		t.Fatalf("expected 192.168.1.1, got %q", host)
	}

	wantOrder := []string{r.BaseURL("192.168.1.42"), r.BaseURL("192.168.1.1")}
	if len(probed) != len(wantOrder) {
		t.Fatalf("expected %d probes, got %d (%v)", len(wantOrder), len(probed), probed)
	}
	for i, want := range wantOrder {
		if probed[i] != want {
			t.Fatalf("probe %d: expected %s, got %s", i, want, probed[i])
		}
	}

	if len(store.saved) != 1 || store.saved[0] != "192.168.1.1" {
		t.Fatalf("expected discovered host persisted once, got %v", store.saved)
	}
}

func TestSetTrimsAndValidates(t *testing.T) {
	store := &stubStore{}
	r := newTestResolver(store, Config{})

	if err := r.Set(context.Background(), "  192.168.1.9  "); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	host, err := r.Resolve(context.Background())
	if err != nil || host != "192.168.1.9" {
		t.Fatalf("expected trimmed host, got %q err=%v", host, err)
	}

	if err := r.Set(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank host")
	}
}

func TestClearForgetsBothTiers(t *testing.T) {
	store := &stubStore{}
	r := newTestResolver(store, Config{})

	if err := r.Set(context.Background(), "192.168.1.9"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := r.Clear(context.Background()); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if store.deleted != 1 {
		t.Fatalf("expected one store delete, got %d", store.deleted)
	}

	probes := 0
	r.probe = func(ctx context.Context, baseURL string) bool {
		probes++
		return false
	}
	if _, err := r.Resolve(context.Background()); !errors.Is(err, ErrNoHost) {
		t.Fatalf("expected re-discovery after clear, got %v", err)
	}
	if probes == 0 {
		t.Fatal("expected discovery to probe after clear")
	}
}

func TestHTTPProbeStatusThreshold(t *testing.T) {
	r := newTestResolver(nil, Config{})

	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.NotFound(w, req)
	}))
	defer okServer.Close()
	if !r.httpProbe(context.Background(), okServer.URL) {
		t.Fatal("expected 404 to count as reachable")
	}

	errServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer errServer.Close()
	if r.httpProbe(context.Background(), errServer.URL) {
		t.Fatal("expected 500 to count as unreachable")
	}

	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))
	closed.Close()
	if r.httpProbe(context.Background(), closed.URL) {
		t.Fatal("expected closed server to count as unreachable")
	}
}

func TestProberHitsConnectivityPath(t *testing.T) {
	var path string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path = req.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	r := newTestResolver(nil, Config{Port: serverPort(t, ts)})
	if err := r.Set(context.Background(), "127.0.0.1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	p := NewProber(r, zap.NewNop())
	if !p.Probe(context.Background()) {
		t.Fatal("expected probe to succeed")
	}
	if path != "/admin/" {
		t.Fatalf("expected probe against /admin/, got %q", path)
	}
}

func TestProberFalseWhenNoHostResolved(t *testing.T) {
	r := newTestResolver(nil, Config{})
	r.probe = func(ctx context.Context, baseURL string) bool { return false }

	p := NewProber(r, zap.NewNop())
	if p.Probe(context.Background()) {
		t.Fatal("expected probe to fail without a resolved host")
	}
}

func serverPort(t *testing.T, ts *httptest.Server) int {
	t.Helper()
	_, portStr, err := net.SplitHostPort(ts.Listener.Addr().String())
	if err != nil {
		t.Fatalf("failed to parse test server address: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("failed to parse port: %v", err)
	}
	return port
}
