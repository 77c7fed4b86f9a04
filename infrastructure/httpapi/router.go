package httpapi

import (
	"bounty-lab/auth"
	"bounty-lab/observability"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the collaborator API, the public reads, the viewer socket and the probes.
// Writes need a collaborator token with the matching scope.
func NewRouter(log *slog.Logger, h *Handler, metrics *observability.Metrics, issuer *auth.TokenIssuer, viewerSocket http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(log))
	r.Use(observability.RequestMiddleware(metrics))

	r.Handle("/ws", viewerSocket)
	r.Get("/healthz", h.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/rooms/{id}", func(rr chi.Router) {
		rr.Get("/", h.GetRoom)
		rr.Get("/depositors", h.GetDepositors)

		rr.Group(func(pr chi.Router) {
			pr.Use(middleware.Timeout(30 * time.Second))
			pr.With(auth.Middleware(issuer, auth.ScopeRoomWrite)).Put("/", h.RegisterRoom)
			pr.With(auth.Middleware(issuer, auth.ScopeActivityWrite)).Post("/activity", h.ReportActivity)
			pr.With(auth.Middleware(issuer, auth.ScopeDepositWrite)).Post("/deposits", h.ReportDeposit)
		})
	})

	return r
}

// RequestLogger logs one line per request, at warn or error level for failures.
func RequestLogger(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			switch {
			case ww.Status() >= 500:
				level = slog.LevelError
			case ww.Status() >= 400:
				level = slog.LevelWarn
			}
			log.LogAttrs(r.Context(), level, "http_request",
				slog.String("req_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_ip", r.RemoteAddr),
			)
		})
	}
}
