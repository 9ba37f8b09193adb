package controllers

import (
	"context"
	"net/http"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/api/responses"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/config"
	pkgerrors "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/errors"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
)

// ReadinessPinger is satisfied by the db client and the redis client.
type ReadinessPinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Meduzzen-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every backing dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]ReadinessPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Meduzzen-Env", cfg.App.Env)
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ping "+name))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
