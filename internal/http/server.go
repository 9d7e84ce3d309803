// Package http exposes the tracker's command/query API as JSON for
// presentation layers, plus the WebSocket endpoint renderers subscribe
// to for change events.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"famledger/internal/cache"
	"famledger/internal/insights"
	"famledger/internal/services"
	"famledger/internal/ws"
)

// Options tunes the server's cache and rate limiting.
type Options struct {
	InsightsCacheSize  int
	InsightsCacheTTL   time.Duration
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	tracker *services.Tracker
	hub     *ws.Hub

	rateLimiter *rateLimiter

	// LRU cache for monthly insight reports, purged on every mutation
	insightsCache *cache.LRU[insights.Report]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// Simple in-memory rate limiter for mutating requests.
type rateLimiter struct {
	mu           sync.Mutex
	perMinute    int
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter(perMinute int) *rateLimiter {
	rl := &rateLimiter{
		perMinute:   perMinute,
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes.
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now
	return client.requests <= rl.perMinute
}

// NewServer configures routes and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, tracker *services.Tracker, hub *ws.Hub, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		tracker:          tracker,
		hub:              hub,
		rateLimiter:      newRateLimiter(opts.RateLimitPerMinute),
		insightsCache:    cache.NewLRU[insights.Report](opts.InsightsCacheSize, opts.InsightsCacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /expenses", s.middleware(s.handleAddExpense))
	mux.HandleFunc("PUT /expenses/{id}", s.middleware(s.handleEditExpense))
	mux.HandleFunc("DELETE /expenses/{id}", s.middleware(s.handleDeleteExpense))
	mux.HandleFunc("POST /transfers", s.middleware(s.handleAddTransfer))
	mux.HandleFunc("POST /undo", s.middleware(s.handleUndo))

	mux.HandleFunc("GET /transactions", s.middleware(s.handleTransactions))
	mux.HandleFunc("GET /totals", s.middleware(s.handleTotals))
	mux.HandleFunc("GET /wallets/{id}/stats", s.middleware(s.handleWalletStats))
	mux.HandleFunc("GET /wallets/{id}/transactions", s.middleware(s.handleWalletTransactions))
	mux.HandleFunc("GET /search", s.middleware(s.handleSearch))
	mux.HandleFunc("GET /insights", s.middleware(s.handleInsights))

	mux.HandleFunc("GET /members", s.middleware(s.handleListMembers))
	mux.HandleFunc("POST /members", s.middleware(s.handleCreateMember))
	mux.HandleFunc("PUT /members/{id}", s.middleware(s.handleUpdateMember))
	mux.HandleFunc("DELETE /members/{id}", s.middleware(s.handleDeleteMember))

	mux.HandleFunc("GET /wallets", s.middleware(s.handleListWallets))
	mux.HandleFunc("POST /wallets", s.middleware(s.handleCreateWallet))
	mux.HandleFunc("PUT /wallets/{id}", s.middleware(s.handleUpdateWallet))
	mux.HandleFunc("DELETE /wallets/{id}", s.middleware(s.handleDeleteWallet))

	mux.HandleFunc("GET /categories", s.middleware(s.handleListCategories))
	mux.HandleFunc("POST /categories", s.middleware(s.handleCreateCategory))
	mux.HandleFunc("PUT /categories/{id}", s.middleware(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.middleware(s.handleDeleteCategory))

	if hub != nil {
		mux.Handle("GET /events", hub)
	}

	return s
}

// startCacheCleanup periodically drops expired insight reports.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.insightsCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "insight_entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// middleware adds security headers, rate limiting, request ids, and
// request logging.
func (s *Server) middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		// Rate-limit mutating requests only
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request id for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func insightsCacheKey(year, month int) string {
	return fmt.Sprintf("%d-%d", year, month)
}

// invalidateInsights drops every cached report. A single mutation can
// move two adjacent months' highlights, so per-key invalidation is not
// enough.
func (s *Server) invalidateInsights() {
	s.insightsCache.Purge()
}
