package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
	"github.com/aussiebroadwan/greenbite/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket refilled at Requests per Window.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

var (
	// GlobalLimit applies to every API request per client IP.
	GlobalLimit = RateLimitConfig{Requests: 100, Window: 15 * time.Minute, Burst: 100}

	// StrictLimit guards credential endpoints against guessing.
	StrictLimit = RateLimitConfig{Requests: 5, Window: time.Minute, Burst: 5}
)

// FromEnv overrides c with RATELIMIT_<prefix>_REQUESTS, _WINDOW_SEC and
// _BURST when they hold positive integers.
func (c RateLimitConfig) FromEnv(prefix string) RateLimitConfig {
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		c.Requests = n
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		c.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_BURST"); ok {
		c.Burst = n
	}
	return c
}

func positiveEnv(key string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// KeyExtractor picks the bucket a request is counted against. An empty key
// bypasses the limiter.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor keys on the connection address. Forwarding headers are
// ignored; use TrustedProxies.KeyExtractor behind a reverse proxy.
func IPKeyExtractor(r *http.Request) string {
	if addr, ok := remoteAddr(r); ok {
		return addr.String()
	}
	return r.RemoteAddr
}

func remoteAddr(r *http.Request) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// TrustedProxies lists the networks allowed to set X-Forwarded-For and
// X-Real-IP. The zero value trusts nobody.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies accepts CIDRs and bare addresses.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	out := make(TrustedProxies, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func (tp TrustedProxies) trusts(a netip.Addr) bool {
	for _, p := range tp {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// ClientIP returns the connection address unless it belongs to a trusted
// proxy. Then X-Forwarded-For is walked from the right and the first hop
// that is not itself a trusted proxy wins, falling back to X-Real-IP.
func (tp TrustedProxies) ClientIP(r *http.Request) string {
	peer, ok := remoteAddr(r)
	if !ok || !tp.trusts(peer) {
		return IPKeyExtractor(r)
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			hop = hop.Unmap()
			if !tp.trusts(hop) {
				return hop.String()
			}
		}
	}
	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.Unmap().String()
	}
	return peer.String()
}

// KeyExtractor adapts ClientIP for the rate limiter.
func (tp TrustedProxies) KeyExtractor() KeyExtractor { return tp.ClientIP }

// JSONFieldKeyExtractor keys on a top-level string field of a JSON body.
// The body is restored for the handler.
func JSONFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if err != nil {
			return ""
		}

		var doc map[string]any
		if json.Unmarshal(raw, &doc) != nil {
			return ""
		}
		v, _ := doc[field].(string)
		return strings.ToLower(strings.TrimSpace(v))
	}
}

const sweepEvery = 5 * time.Minute

// RateLimiter holds one token bucket per key.
type RateLimiter struct {
	cfg   RateLimitConfig
	limit rate.Limit

	mu        sync.Mutex
	buckets   map[string]*rate.Limiter
	lastSweep time.Time
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		cfg:       cfg,
		limit:     rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		buckets:   make(map[string]*rate.Limiter),
		lastSweep: time.Now(),
	}
}

// Allow takes a token for key. When none is left it reports how long until
// the next one.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = rate.NewLimiter(rl.limit, rl.cfg.Burst)
		rl.buckets[key] = b
	}
	if now.Sub(rl.lastSweep) >= sweepEvery {
		rl.sweep(now)
	}
	rl.mu.Unlock()

	if b.AllowN(now, 1) {
		return true, 0
	}
	res := b.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	return false, wait
}

// sweep drops buckets that have refilled completely. Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	rl.lastSweep = now
	for key, b := range rl.buckets {
		if b.TokensAt(now) >= float64(rl.cfg.Burst) {
			delete(rl.buckets, key)
		}
	}
}

// Len reports how many keys are tracked.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

var errRateLimited = shopsdk.NewAPIError(http.StatusTooManyRequests, shopsdk.CodeRateLimited,
	"Too many requests, please try again later.")

func RateLimitMiddleware(cfg RateLimitConfig, keyFn KeyExtractor) Middleware {
	rl := NewRateLimiter(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := rl.Allow(key)
			if !ok {
				retryAfter := max(int(wait.Seconds()+0.5), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
				w.Header().Set("X-RateLimit-Window", cfg.Window.String())

				slogx.FromContext(r.Context()).Warn("rate limit exceeded",
					"key", key,
					"path", r.URL.Path,
					"retry_after", retryAfter,
				)
				errRateLimited.WriteError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByClientIP keys on the client address as resolved through tp.
func RateLimitByClientIP(cfg RateLimitConfig, tp TrustedProxies) Middleware {
	return RateLimitMiddleware(cfg, tp.KeyExtractor())
}

// RateLimitByJSONField limits on a body field alone, e.g. the email a reset
// code was issued to, no matter which address the guesses come from.
func RateLimitByJSONField(cfg RateLimitConfig, field string) Middleware {
	return RateLimitMiddleware(cfg, JSONFieldKeyExtractor(field))
}
