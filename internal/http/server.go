package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"ishop/internal/cache"
	"ishop/internal/core"
	"ishop/internal/feed"
	applog "ishop/internal/log"
	"ishop/internal/middleware/trace"
	"ishop/internal/services"
)

type Server struct {
	http.Server
	lists  *services.ListService
	items  *services.ItemService
	budget *services.BudgetService

	rateLimiter *rateLimiter
	metrics     *securityMetrics
	tracer      *trace.Middleware

	// Derived read models are cached and purged wholesale on every
	// committed change; the next read recomputes from storage.
	overviewCache *cache.LRUCache[core.BudgetOverview]
	sectionsCache *cache.LRUCache[[]core.SectionGroup]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run
// http.Server. The change feed keeps the caches honest: any published
// change empties them.
func NewServer(addr string, lists *services.ListService, items *services.ItemService, budget *services.BudgetService, changes *feed.Feed) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		lists:         lists,
		items:         items,
		budget:        budget,
		rateLimiter:   newRateLimiter(),
		metrics:       &securityMetrics{},
		overviewCache: cache.NewLRUCache[core.BudgetOverview](100, 5*time.Minute),
		sectionsCache: cache.NewLRUCache[[]core.SectionGroup](20, time.Minute),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.Register(s.sectionsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	if changes != nil {
		changes.Subscribe(func(feed.Change) {
			s.overviewCache.Purge()
			s.sectionsCache.Purge()
		})
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /lists", s.withSecurityHeaders(s.handleListLists))
	mux.HandleFunc("POST /lists", s.withSecurityHeaders(s.handleCreateList))
	mux.HandleFunc("GET /lists/{id}", s.withSecurityHeaders(s.handleGetList))
	mux.HandleFunc("PATCH /lists/{id}", s.withSecurityHeaders(s.handleRenameList))
	mux.HandleFunc("DELETE /lists/{id}", s.withSecurityHeaders(s.handleDeleteList))
	mux.HandleFunc("GET /sections", s.withSecurityHeaders(s.handleSections))

	mux.HandleFunc("POST /lists/{id}/items", s.withSecurityHeaders(s.handleCreateItem))
	mux.HandleFunc("GET /items/{id}", s.withSecurityHeaders(s.handleGetItem))
	mux.HandleFunc("PUT /items/{id}", s.withSecurityHeaders(s.handleUpdateItem))
	mux.HandleFunc("POST /items/{id}/toggle", s.withSecurityHeaders(s.handleToggleItem))
	mux.HandleFunc("PUT /items", s.withSecurityHeaders(s.handleBatchUpdateItems))
	mux.HandleFunc("DELETE /items/{id}", s.withSecurityHeaders(s.handleDeleteItem))

	mux.HandleFunc("GET /budget/overview", s.withSecurityHeaders(s.handleBudgetOverview))

	s.tracer = trace.NewMiddleware(extractClientIP)
	s.Handler = s.tracer.Middleware(mux)

	return s
}

// withSecurityHeaders adds security headers and rate limiting. Request
// logging lives in the trace middleware wrapping the whole mux.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)

		// Rate limit mutating requests only; reads are cache-friendly.
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			if !s.rateLimiter.allow(clientIP, s.metrics) {
				fields := applog.NewFields().
					WithComponent(applog.ComponentRateLimit).
					WithClientIP(clientIP).
					WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "")
				slog.WarnContext(r.Context(), "Rate limit exceeded", fields.ToSlice()...)
				w.Header().Set("Retry-After", "60")
				respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if hits := s.metrics.rateLimited(); hits > 0 {
			slog.Info("Rate limiter summary", "rejected_requests", hits)
		}
		slog.Info("Request summary", "total_requests", s.tracer.TotalRequests())
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
