package handlers

import (
	"context"
	"net/http"
	"time"

	"channel-catalog/logger"
	"channel-catalog/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	AllowedOrigins []string
	// Requests per minute per client IP. Zero disables limiting.
	RateLimit int
}

type requestIDKey struct{}

const requestIDHeader = "X-Request-ID"

// RequestIDFrom returns the id assigned to the request, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			took := time.Since(start)

			var route string
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			metrics.RecordHTTPRequest(route, ww.Status(), took)
			log.Debugf("[%s] %s %s -> %d (%s)", RequestIDFrom(r.Context()),
				r.Method, r.URL.RequestURI(), ww.Status(), took)
		})
	}
}

func gzipResponses(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// NewRouter mounts the channel endpoints under /api/channels.
func NewRouter(h *ChannelsHTTPHandler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match", requestIDHeader},
		ExposedHeaders:   []string{"ETag", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/channels", func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
		}
		r.Use(gzipResponses)

		r.Get("/", h.ListAll)
		r.Get("/india", h.ListCountry)
		r.Get("/country", h.ListCountry)
		r.Get("/categories", h.Categories)
		r.Get("/languages", h.Languages)
		r.Get("/india/streams", h.CountryStreams)
		r.Get("/country/streams", h.CountryStreams)
		r.Get("/related/{channelId}", h.Related)
		r.Get("/{id}", h.Get)
	})

	return r
}
