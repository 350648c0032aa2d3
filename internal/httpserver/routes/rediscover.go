package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/Checkmk/checkmk-sub072/internal/httpserver/deps"
	"github.com/Checkmk/checkmk-sub072/internal/httpserver/handlers"
)

func init() { Register(registerRediscover) }

func registerRediscover(r chi.Router, d deps.Deps) {
	g := r.With(mutating(d)...)
	g.Post("/api/rediscover", handlers.Rediscover(d))
	g.Post("/api/rules/reload", handlers.ReloadRules(d))
}
