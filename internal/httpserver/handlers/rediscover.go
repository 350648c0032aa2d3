package handlers

import (
	"net/http"

	"github.com/Checkmk/checkmk-sub072/internal/httpserver/deps"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

type triggerResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Rediscover triggers a fleet rediscovery in the background.
func Rediscover(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.RediscoverTrigger <- struct{}{}:
			d.Logger.Info("manual rediscovery triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d, http.StatusAccepted, triggerResponse{Triggered: true, Message: "rediscovery triggered"})
		default:
			d.Logger.Warn("rediscovery already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d, http.StatusTooManyRequests, triggerResponse{Message: "rediscovery already pending"})
		}
	}
}

type rulesResponse struct {
	Clusters int `json:"clusters"`
}

// ReloadRules re-reads the rules file. On error the previous rules stay
// active.
func ReloadRules(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Rules.Reload(); err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, rulesResponse{Clusters: len(d.Rules.Rules().ClusterNames())})
	}
}
