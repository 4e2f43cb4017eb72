// Package http is the thin transport adapter: it mounts every registered
// operation on a JSON endpoint and maps engine errors onto statuses and
// the operator's message set. Nothing here knows how credentials work.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gqlgate/internal/auth/ops"
	"github.com/aussiebroadwan/gqlgate/internal/auth/service"
	"github.com/aussiebroadwan/gqlgate/internal/auth/store"
	"github.com/aussiebroadwan/gqlgate/pkg/httpx"
	"github.com/aussiebroadwan/gqlgate/pkg/slogx"
)

// Operations that accept guessable secrets get the strict per-IP limit;
// everything else rides the moderate default.
var strictOps = map[string]bool{
	"authenticate":      true,
	"forgottenPassword": true,
	"setPassword":       true,
	"refreshToken":      true,
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	registry     *ops.Registry
	messages     service.Messages
	store        store.Store
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
}

func NewRouter(reg *ops.Registry, msgs service.Messages, st store.Store, buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		registry:     reg,
		messages:     msgs,
		store:        st,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ApplyRoutes mounts every registered operation plus the system endpoints.
func (r *Router) ApplyRoutes() {
	r.registerOperations()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOperations() {
	for _, op := range r.registry.Operations() {
		h := &opHandler{op: op, messages: r.messages}

		limit := httpx.ModerateLimit
		if strictOps[op.Name] {
			limit = httpx.StrictLimit
		}
		chained := httpx.Chain(h, httpx.RateLimitByIP(limit))

		r.Mux.Handle("POST /v1/op/"+op.Name, chained)
		if op.Kind == ops.KindQuery {
			r.Mux.Handle("GET /v1/op/"+op.Name, chained)
		}
	}
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
