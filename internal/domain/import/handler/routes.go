package handler

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/question-bank/pkg/metrics"
	"github.com/FACorreiaa/question-bank/pkg/tracing"
)

// RouterOptions configures the middleware stack around the API
type RouterOptions struct {
	AllowedOrigins []string
	// RatePerSecond and Burst bound requests per client IP; zero disables limiting
	RatePerSecond int
	Burst         int
	Metrics       *metrics.Metrics // Optional: nil leaves /metrics unmounted
	Tracer        trace.Tracer     // Optional
}

// Routes mounts the import API under /api/v1
func Routes(h *ImportHandler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Record-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	if opts.Tracer != nil {
		r.Use(tracing.Middleware(opts.Tracer, routePattern))
	}
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware(routePattern))
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		if opts.RatePerSecond > 0 {
			r.Use(RateLimiter(opts.RatePerSecond, opts.Burst))
		}

		r.Post("/analyze", h.Analyze)
		r.Post("/preview", h.Preview)
		r.Post("/preview/batch", h.PreviewBatch)
		r.Post("/import", h.Import)
		r.Post("/import/file", h.ImportFile)

		r.Get("/questions", h.ListQuestions)
		r.Get("/questions/{id}", h.GetQuestion)
		r.Put("/questions/{id}", h.UpdateQuestion)
		r.Get("/export", h.Export)
		r.Get("/search", h.Search)
		r.Post("/reindex", h.Reindex)

		r.Post("/lessons/preview", h.PreviewLesson)
		r.Post("/lessons", h.ImportLesson)
		r.Get("/lessons", h.FetchLessons)
		r.Post("/chapters/{id}/topics", h.CreateTopic)
		r.Post("/topics/{id}/questions", h.AddReviewQuestions)
		r.Post("/overviews", h.ImportOverview)
		r.Post("/subjects/rename", h.RenameSubject)
	})

	return r
}

// routePattern labels a request by its chi route pattern
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits each client IP to perSecond requests with the given burst.
// Idle clients are forgotten after a few minutes.
func RateLimiter(perSecond, burst int) func(http.Handler) http.Handler {
	if burst < perSecond {
		burst = perSecond
	}
	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
		lastGC   = time.Now()
	)
	const idle = 3 * time.Minute

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			now := time.Now()

			mu.Lock()
			if now.Sub(lastGC) > idle {
				for ip, v := range visitors {
					if now.Sub(v.lastSeen) > idle {
						delete(visitors, ip)
					}
				}
				lastGC = now
			}
			v, ok := visitors[key]
			if !ok {
				v = &visitor{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
				visitors[key] = v
			}
			v.lastSeen = now
			mu.Unlock()

			if !v.limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
