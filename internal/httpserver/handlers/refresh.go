package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bubbletime/internal/logger"
	"github.com/MrSnakeDoc/bubbletime/internal/utils"
)

type refreshQueuedResponse struct {
	Queued bool `json:"queued"`
}

// Refresh recomputes every bubble's local time and returns the report.
// With ?async=true it only queues a background refresh: 202 when queued,
// 429 when one is already waiting.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		async, _ := strconv.ParseBool(r.URL.Query().Get("async"))
		if async && d.Refresher != nil {
			triggerRefresh(w, r, d)
			return
		}

		report, err := d.Facade.RefreshAllTimes(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func triggerRefresh(w http.ResponseWriter, r *http.Request, d deps.Deps) {
	ip := utils.ClientIP(r, d.TrustProxy)
	if d.Refresher.Trigger() {
		d.Logger.Info("manual refresh triggered via endpoint", logger.String("remote_ip", ip))
		writeJSON(w, http.StatusAccepted, refreshQueuedResponse{Queued: true})
		return
	}
	d.Logger.Warn("refresh already queued", logger.String("remote_ip", ip))
	writeJSON(w, http.StatusTooManyRequests, refreshQueuedResponse{Queued: false})
}
