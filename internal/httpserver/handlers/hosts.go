package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/httpserver/deps"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

// ListHosts returns the last discovery summary of every host.
func ListHosts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := hostsView{
			Hosts:  d.MemoryIndex.All(),
			Failed: d.MemoryIndex.Failed(),
		}
		if last := d.MemoryIndex.LastRun(); !last.IsZero() {
			resp.LastRun = &last
		}
		writeJSON(w, d, http.StatusOK, resp)
	}
}

// HostSummary returns the last discovery summary of one host.
func HostSummary(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host := chi.URLParam(r, "host")
		s, ok := d.MemoryIndex.Get(host)
		if !ok {
			writeJSON(w, d, http.StatusNotFound, errorResponse{Error: "no discovery summary for host " + host})
			return
		}
		writeJSON(w, d, http.StatusOK, s)
	}
}

// Autochecks returns the persisted services of a host with their effective
// parameters.
func Autochecks(d deps.Deps) http.HandlerFunc {
	engine := d.Fleet.Engine()
	return func(w http.ResponseWriter, r *http.Request) {
		host := chi.URLParam(r, "host")
		services, err := engine.Autochecks(host)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, newServiceViews(host, services, engine.Resolve))
	}
}

// DeleteAutochecks removes the autochecks and host labels of a host.
func DeleteAutochecks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host := chi.URLParam(r, "host")
		err := d.Fleet.Exclusive(r.Context(), host, func() error {
			if err := d.Autochecks.Remove(host); err != nil {
				return err
			}
			return d.HostLabels.Remove(host)
		})
		if err != nil {
			writeError(w, d, err)
			return
		}
		d.MemoryIndex.Delete(host)
		w.WriteHeader(http.StatusNoContent)
	}
}

// Preview discovers a host and returns the service table without writing.
func Preview(d deps.Deps) http.HandlerFunc {
	engine := d.Fleet.Engine()
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := engine.Preview(r.Context(), chi.URLParam(r, "host"))
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, newPreviewView(p))
	}
}

type clusterView struct {
	Cluster string       `json:"cluster"`
	Nodes   []resultView `json:"nodes"`
}

// Discover reconciles one host. ?mode= overrides the configured mode. A
// cluster node is reconciled together with the other nodes of its cluster.
func Discover(d deps.Deps) http.HandlerFunc {
	engine := d.Fleet.Engine()
	return func(w http.ResponseWriter, r *http.Request) {
		host := chi.URLParam(r, "host")

		var mode discovery.Mode
		if q := r.URL.Query().Get("mode"); q != "" {
			m, err := discovery.ParseMode(q)
			if err != nil {
				writeError(w, d, err)
				return
			}
			mode = m
		}

		current := d.Rules.Rules()
		if cluster, ok := current.ClusterOf(host); ok {
			nodes, _ := current.Nodes(cluster)
			d.Logger.Info("discovering cluster",
				logger.Host(host),
				logger.String("cluster", cluster))
			results, err := d.Fleet.RunCluster(r.Context(), cluster, nodes, mode, current.Rediscovery())
			if err != nil {
				writeError(w, d, err)
				return
			}
			resp := clusterView{Cluster: cluster, Nodes: make([]resultView, 0, len(results))}
			for _, res := range results {
				resp.Nodes = append(resp.Nodes, newResultView(res, engine.Resolve))
			}
			writeJSON(w, d, http.StatusOK, resp)
			return
		}

		res, err := d.Fleet.RunHost(r.Context(), host, mode, current.Rediscovery())
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, newResultView(res, engine.Resolve))
	}
}
