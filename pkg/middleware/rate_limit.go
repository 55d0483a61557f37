package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"slotbook/pkg/logger"
)

// ClientExtractor derives the rate-limit key for a request. Callers
// behind a proxy can key on a forwarded header instead of the peer.
type ClientExtractor func(r *http.Request) string

type ClientRateLimiter struct {
	mu        sync.RWMutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	extractor ClientExtractor
	log       *logger.Logger
	stopCh    chan struct{}
}

func NewClientRateLimiter(limit int, window time.Duration, extractor ClientExtractor, log *logger.Logger) *ClientRateLimiter {
	limiter := &ClientRateLimiter{
		requests:  make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *ClientRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for client, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, client)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *ClientRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *ClientRateLimiter) Allow(client string) bool {
	if client == "" {
		return true
	}

	now := time.Now()

	// Check and record must be one critical section, or two requests at
	// the limit boundary both pass and one overwrites the other's entry.
	rl.mu.Lock()
	defer rl.mu.Unlock()

	timestamps := rl.requests[client]
	validTimestamps := make([]time.Time, 0, len(timestamps)+1)
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			validTimestamps = append(validTimestamps, ts)
		}
	}

	if len(validTimestamps) >= rl.limit {
		rl.requests[client] = validTimestamps
		return false
	}

	rl.requests[client] = append(validTimestamps, now)
	return true
}

func ClientRateLimit(limiter *ClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := extractClient(r, limiter.extractor)

			if client == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(client) {
				rejectRateLimited(w, limiter.log, r, client)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractClient(r *http.Request, extractor ClientExtractor) string {
	if extractor == nil {
		return DefaultClientExtractor(r)
	}
	return extractor(r)
}

func rejectRateLimited(w http.ResponseWriter, log *logger.Logger, r *http.Request, client string) {
	requestID := ""
	if rid := r.Context().Value(RequestIDKey); rid != nil {
		requestID = rid.(string)
	}

	log.Warn("Rate limit exceeded",
		"request_id", requestID,
		"client", client,
		"path", r.URL.Path,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
}

// DefaultClientExtractor keys on the calling host, ignoring the port so
// connections from the same host share a bucket.
func DefaultClientExtractor(r *http.Request) string {
	if id := r.Header.Get("X-Client-ID"); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
