package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Checkmk/checkmk-sub072/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz reports readiness. An unreachable Redis degrades the service (no
// shared locks or summaries) but does not make it unready.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"autochecks": checkDir(d),
			"redis":      checkRedis(r.Context(), d),
		}

		resp := readyzResponse{Ready: components["autochecks"].OK, Mode: "optimal", Components: components}
		if !components["redis"].OK {
			resp.Mode = "degraded"
		}

		status := http.StatusOK
		if !resp.Ready {
			resp.Mode = "critical"
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, d, status, resp)
	}
}

func checkDir(d deps.Deps) componentStatus {
	hosts, err := d.Autochecks.Hosts()
	if err != nil {
		return componentStatus{OK: false, Detail: err.Error()}
	}
	return componentStatus{OK: true, Detail: plural(len(hosts), "host")}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{OK: false, Mode: "local-locks-only", Detail: err.Error()}
	}
	return componentStatus{OK: true, Mode: "shared"}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
