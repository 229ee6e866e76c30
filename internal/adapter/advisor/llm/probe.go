package llm

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const defaultProbeTTL = 60 * time.Second

// livenessProbe caches reachability of the backend endpoint. Any HTTP
// response counts as alive; only transport-level failures mark it down.
type livenessProbe struct {
	mu       sync.Mutex
	client   *http.Client
	url      string
	ttl      time.Duration
	now      func() time.Time
	alive    bool
	checked  time.Time
	hasCheck bool
}

func newLivenessProbe(client *http.Client, url string, ttl time.Duration, now func() time.Time) *livenessProbe {
	if ttl <= 0 {
		ttl = defaultProbeTTL
	}
	if now == nil {
		now = time.Now
	}
	return &livenessProbe{client: client, url: url, ttl: ttl, now: now}
}

func (p *livenessProbe) Alive(ctx context.Context) bool {
	p.mu.Lock()
	if p.hasCheck && p.now().Sub(p.checked) < p.ttl {
		alive := p.alive
		p.mu.Unlock()
		return alive
	}
	p.mu.Unlock()

	alive := p.check(ctx)

	p.mu.Lock()
	p.alive = alive
	p.checked = p.now()
	p.hasCheck = true
	p.mu.Unlock()
	return alive
}

func (p *livenessProbe) check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
