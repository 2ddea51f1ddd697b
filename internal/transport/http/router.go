package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"verigate/internal/openbanking"
	"verigate/internal/platform/metrics"
	"verigate/internal/platform/middleware"
	verificationhandler "verigate/internal/verification/handler"
	"verigate/pkg/platform/httputil"
)

// Deps carries everything the router mounts. Nil optional handlers are
// skipped so a partial deployment still serves its configured surface.
type Deps struct {
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Verification  *verificationhandler.Handler
	OpenBanking   *openbanking.Handler
	AuthValidator middleware.JWTValidator

	// HealthChecks run on /healthz; a failing check flips the response to 503.
	HealthChecks map[string]func(context.Context) error
}

// NewRouter assembles the middleware chain and mounts all endpoints. The
// webhook route sits outside the bearer-auth group; the provider signs
// payloads instead of carrying a token.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Latency(d.Metrics))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", healthHandler(d.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if d.Verification != nil {
		d.Verification.RegisterWebhook(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(d.AuthValidator, d.Logger))
		if d.Verification != nil {
			d.Verification.Register(r)
		}
		if d.OpenBanking != nil {
			d.OpenBanking.Register(r)
		}
	})

	return r
}

func healthHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}

		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(components) > 0 {
			body["components"] = components
		}
		httputil.WriteJSON(w, status, body)
	}
}
