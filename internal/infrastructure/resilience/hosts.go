package resilience

import (
	"net/url"
	"strings"
	"sync"
)

// Hosts lazily keeps one Breaker per host.
type Hosts struct {
	cfg Settings

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewHosts creates a per-host breaker set sharing cfg.
func NewHosts(cfg Settings) *Hosts {
	return &Hosts{cfg: cfg, breakers: make(map[string]*Breaker)}
}

// For returns the breaker for rawURL's host.
func (h *Hosts) For(rawURL string) *Breaker {
	host := HostOf(rawURL)

	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.breakers[host]
	if !ok {
		b = New(host, h.cfg)
		h.breakers[host] = b
	}
	return b
}

// States reports the state of every known host.
func (h *Hosts) States() map[string]State {
	h.mu.Lock()
	breakers := make(map[string]*Breaker, len(h.breakers))
	for k, v := range h.breakers {
		breakers[k] = v
	}
	h.mu.Unlock()

	out := make(map[string]State, len(breakers))
	for host, b := range breakers {
		out[host] = b.State()
	}
	return out
}

// HostOf returns the lowercase host of rawURL, or rawURL itself when it
// does not parse.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.ToLower(u.Host)
}
