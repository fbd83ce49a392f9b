package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
)

const healthPingTimeout = 2 * time.Second

// handleHealthz reports database reachability and free space in the staging dir.
func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	status := http.StatusOK
	resp := map[string]any{
		"status":   "ok",
		"database": "disabled",
	}

	if r.db != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthPingTimeout)
		defer cancel()
		if err := r.db.Ping(ctx); err != nil {
			r.logger.Warn().Err(err).Msg("health: database ping failed")
			resp["status"] = "degraded"
			resp["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			resp["database"] = "ok"
		}
	}

	var free uint64
	if r.cfg.StorageDir != "" {
		if usage, err := disk.UsageWithContext(req.Context(), r.cfg.StorageDir); err == nil {
			free = usage.Free
		} else {
			r.logger.Warn().Err(err).Str("dir", r.cfg.StorageDir).Msg("health: disk usage unavailable")
		}
	}
	resp["storage_free_bytes"] = free

	writeJSON(w, status, resp)
}
