// Package server provides the HTTP REST API for the website analyzer.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/website-analyzer/internal/analysis"
	"github.com/jonathan/website-analyzer/internal/config"
	"github.com/jonathan/website-analyzer/internal/server/middleware"
	"github.com/jonathan/website-analyzer/internal/server/ratelimit"
	"github.com/jonathan/website-analyzer/internal/snapshot"
	"github.com/jonathan/website-analyzer/internal/store"
)

// Analyzer is the analysis surface the handlers depend on.
type Analyzer interface {
	SEO(ctx context.Context, url string) analysis.Artifact
	Audit(ctx context.Context, url string) analysis.Artifact
	ContentIdeas(ctx context.Context, url, contentType string) analysis.Artifact
	SocialStrategy(ctx context.Context, url string, platforms []string) analysis.Artifact
	EmailCampaign(ctx context.Context, url, campaignType string) analysis.Artifact
	Leads(ctx context.Context, url string) analysis.Artifact
	Brochure(ctx context.Context, url, companyName string, humorous bool) analysis.Artifact
	Competitors(ctx context.Context, mainURL string, competitorURLs []string) analysis.Artifact
	Capture(ctx context.Context, url string) *snapshot.Website
}

// JobRunner starts background analysis jobs.
type JobRunner interface {
	Start(ctx context.Context, url, analysisType string) (*store.Job, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	svc         Analyzer
	runner      JobRunner
	jobs        store.JobStore
	cache       store.Cache
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
}

// Config holds server configuration
type Config struct {
	Port int
	// RateLimitPerMinute overrides the limiter's default per-client budget.
	// Zero keeps the limiter's own configuration.
	RateLimitPerMinute int
}

// New creates a new server instance
func New(cfg Config, svc Analyzer, runner JobRunner, jobs store.JobStore, cache store.Cache) (*Server, error) {
	s := &Server{
		svc:    svc,
		runner: runner,
		jobs:   jobs,
		cache:  cache,
	}

	// Initialize rate limiter
	limitConfig := ratelimit.LoadConfig()
	if cfg.RateLimitPerMinute > 0 {
		limitConfig.DefaultLimit = cfg.RateLimitPerMinute
		limitConfig.DefaultWindow = time.Minute
	}
	s.rateLimiter = ratelimit.NewLimiter(limitConfig)

	// Bearer auth is optional; without JWT_SECRET the API runs open.
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	if jwtConfig != nil {
		s.jwtService = NewJWTService(jwtConfig)
		log.Printf("[server] bearer authentication enabled")
	}

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	protected := http.NewServeMux()
	protected.HandleFunc("POST /analyze/seo", s.handleSEO)
	protected.HandleFunc("POST /analyze/competitors", s.handleCompetitors)
	protected.HandleFunc("POST /analyze/content", s.handleContent)
	protected.HandleFunc("POST /analyze/contact", s.handleContact)
	protected.HandleFunc("POST /analyze/audit", s.handleAudit)
	protected.HandleFunc("POST /analyze/social", s.handleSocial)
	protected.HandleFunc("POST /analyze/email", s.handleEmail)
	protected.HandleFunc("POST /analyze/brochure", s.handleBrochure)
	protected.HandleFunc("POST /analyze/complete", s.handleComplete)
	protected.HandleFunc("GET /jobs", s.handleListJobs)
	protected.HandleFunc("GET /jobs/{job_id}", s.handleJobStatus)
	protected.HandleFunc("GET /website/info", s.handleWebsiteInfo)
	mux.Handle("/", s.withAuth(protected))

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for model-backed analyses
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler exposes the fully wrapped HTTP handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	log.Println("Server stopped")
	return nil
}

// withAuth enforces bearer authentication when a JWT secret is configured.
func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.jwtService == nil {
		return next
	}
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(next)
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract client identifier (IP address)
		clientID := s.extractClientID(r)

		// Check rate limit
		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)

		if !allowed {
			s.setRateLimitHeaders(w, info)
			s.rateLimitResponse(w, info)
			return
		}

		// Set rate limit headers for successful requests
		s.setRateLimitHeaders(w, info)
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, detail string) {
	s.jsonResponse(w, status, map[string]string{"detail": detail})
}

// extractClientID extracts the client identifier from the request.
// For MVP, this uses the IP address from RemoteAddr.
// In the future, this could use X-Forwarded-For header (only from trusted proxies).
func (s *Server) extractClientID(r *http.Request) string {
	// Get IP from RemoteAddr (format: "IP:port")
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If parsing fails, use the whole RemoteAddr
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"detail":    "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	// Log rate limit hit
	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
