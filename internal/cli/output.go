package cli

import (
	"encoding/json"
	"io"
	"text/tabwriter"

	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/domain"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type serviceView struct {
	CheckPluginName    string            `json:"check_plugin_name"`
	Item               *string           `json:"item"`
	Description        string            `json:"description"`
	Parameters         domain.Parameters `json:"parameters"`
	ResolvedParameters domain.Parameters `json:"resolved_parameters"`
	ServiceLabels      map[string]string `json:"service_labels"`
	Status             discovery.Status  `json:"status,omitempty"`
}

type showView struct {
	Host       string            `json:"host"`
	Services   []serviceView     `json:"services"`
	HostLabels map[string]string `json:"host_labels"`
}

type previewView struct {
	Host       string            `json:"host"`
	Rows       []serviceView     `json:"rows"`
	HostLabels map[string]string `json:"host_labels"`
}

type outcomeView struct {
	Host   string            `json:"host"`
	RunID  string            `json:"run_id,omitempty"`
	Mode   discovery.Mode    `json:"mode,omitempty"`
	Counts *discovery.Counts `json:"counts,omitempty"`
	Error  string            `json:"error,omitempty"`
}

func serviceViews(host string, services []domain.Service, engine *discovery.Engine) []serviceView {
	out := make([]serviceView, 0, len(services))
	for _, s := range services {
		out = append(out, serviceView{
			CheckPluginName:    s.CheckPluginName,
			Item:               s.Item,
			Description:        s.Description,
			Parameters:         s.Parameters,
			ResolvedParameters: engine.Resolve(host, s),
			ServiceLabels:      domain.ServiceLabelStrings(s.ServiceLabels),
		})
	}
	return out
}

func previewViewOf(p *discovery.Preview) previewView {
	rows := make([]serviceView, 0, len(p.Rows))
	for _, r := range p.Rows {
		rows = append(rows, serviceView{
			CheckPluginName:    r.Service.CheckPluginName,
			Item:               r.Service.Item,
			Description:        r.Service.Description,
			Parameters:         r.Service.Parameters,
			ResolvedParameters: r.ResolvedParameters,
			ServiceLabels:      domain.ServiceLabelStrings(r.Service.ServiceLabels),
			Status:             r.Status,
		})
	}
	return previewView{Host: p.Host, Rows: rows, HostLabels: hostLabelStrings(p.HostLabels)}
}

func hostLabelStrings(labels *domain.HostLabels) map[string]string {
	out := map[string]string{}
	if labels.IsEmpty() {
		return out
	}
	for _, l := range labels.ToList() {
		out[l.Name()] = l.Value()
	}
	return out
}

func outcomeViews(outcomes []discovery.Outcome) []outcomeView {
	out := make([]outcomeView, 0, len(outcomes))
	for _, o := range outcomes {
		v := outcomeView{Host: o.Host}
		if o.Err != nil {
			v.Error = o.Err.Error()
		} else {
			v.RunID = o.Result.RunID
			v.Mode = o.Result.Mode
			v.Counts = &o.Result.Counts
		}
		out = append(out, v)
	}
	return out
}
