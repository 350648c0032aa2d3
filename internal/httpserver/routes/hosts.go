package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/Checkmk/checkmk-sub072/internal/httpserver/deps"
	"github.com/Checkmk/checkmk-sub072/internal/httpserver/handlers"
	"github.com/Checkmk/checkmk-sub072/internal/httpserver/mw"
)

func init() { Register(registerHosts) }

func registerHosts(r chi.Router, d deps.Deps) {
	r.Route("/api/hosts", func(r chi.Router) {
		r.Get("/", handlers.ListHosts(d))
		r.Get("/{host}", handlers.HostSummary(d))
		r.Get("/{host}/autochecks", handlers.Autochecks(d))
		r.Get("/{host}/preview", handlers.Preview(d))

		r.Group(func(r chi.Router) {
			r.Use(mutating(d)...)
			r.Post("/{host}/discovery", handlers.Discover(d))
			r.Delete("/{host}/autochecks", handlers.DeleteAutochecks(d))
		})
	})
}

// mutating returns the guards of endpoints that change persisted state.
func mutating(d deps.Deps) []Middleware {
	return []Middleware{
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:      d.RateBurst,
			PerMinute:  d.RatePerMin,
			TrustProxy: d.TrustProxy,
		}),
	}
}
