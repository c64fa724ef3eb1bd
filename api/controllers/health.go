package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/inkwellbooks/inkwell-backend/api/responses"
	"github.com/inkwellbooks/inkwell-backend/pkg/config"
	"github.com/inkwellbooks/inkwell-backend/pkg/db"
	pkgerrors "github.com/inkwellbooks/inkwell-backend/pkg/errors"
	"github.com/inkwellbooks/inkwell-backend/pkg/logger"
	pkgredis "github.com/inkwellbooks/inkwell-backend/pkg/redis"
	"github.com/inkwellbooks/inkwell-backend/pkg/types"
)

const readinessTimeout = 2 * time.Second

type healthResponse struct {
	types.OK
	Status string `json:"status"`
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Inkwell-Env", cfg.App.Env)
		responses.WriteSuccess(w, healthResponse{OK: types.Ok(), Status: "live"})
	}
}

// HealthReady answers ready only when the database and Redis respond.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Inkwell-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, healthResponse{OK: types.Ok(), Status: "ready"})
	}
}
