package handlers

import (
	"time"

	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/domain"
)

type serviceView struct {
	CheckPluginName    string            `json:"check_plugin_name"`
	Item               *string           `json:"item"`
	Description        string            `json:"description"`
	Parameters         domain.Parameters `json:"parameters"`
	ResolvedParameters domain.Parameters `json:"resolved_parameters"`
	ServiceLabels      map[string]string `json:"service_labels"`
}

type resultView struct {
	RunID      string           `json:"run_id"`
	Host       string           `json:"host"`
	Mode       discovery.Mode   `json:"mode"`
	Counts     discovery.Counts `json:"counts"`
	Services   []serviceView    `json:"services"`
	HostLabels map[string]any   `json:"host_labels"`
}

type previewRowView struct {
	Status discovery.Status `json:"status"`
	serviceView
}

type previewView struct {
	Host       string           `json:"host"`
	Rows       []previewRowView `json:"rows"`
	HostLabels map[string]any   `json:"host_labels"`
}

type hostsView struct {
	Hosts   []discovery.Summary `json:"hosts"`
	Failed  int                 `json:"failed"`
	LastRun *time.Time          `json:"last_run,omitempty"`
}

type resolveFunc func(host string, s domain.Service) domain.Parameters

func newServiceView(host string, s domain.Service, resolve resolveFunc) serviceView {
	return serviceView{
		CheckPluginName:    s.CheckPluginName,
		Item:               s.Item,
		Description:        s.Description,
		Parameters:         s.Parameters,
		ResolvedParameters: resolve(host, s),
		ServiceLabels:      domain.ServiceLabelStrings(s.ServiceLabels),
	}
}

func newServiceViews(host string, services []domain.Service, resolve resolveFunc) []serviceView {
	out := make([]serviceView, 0, len(services))
	for _, s := range services {
		out = append(out, newServiceView(host, s, resolve))
	}
	return out
}

func labelDict(labels *domain.HostLabels) map[string]any {
	if labels.IsEmpty() {
		return map[string]any{}
	}
	return labels.ToDict()
}

func newResultView(res *discovery.Result, resolve resolveFunc) resultView {
	return resultView{
		RunID:      res.RunID,
		Host:       res.Host,
		Mode:       res.Mode,
		Counts:     res.Counts,
		Services:   newServiceViews(res.Host, res.Services, resolve),
		HostLabels: labelDict(res.HostLabels),
	}
}

func newPreviewView(p *discovery.Preview) previewView {
	rows := make([]previewRowView, 0, len(p.Rows))
	for _, r := range p.Rows {
		rows = append(rows, previewRowView{
			Status: r.Status,
			serviceView: serviceView{
				CheckPluginName:    r.Service.CheckPluginName,
				Item:               r.Service.Item,
				Description:        r.Service.Description,
				Parameters:         r.Service.Parameters,
				ResolvedParameters: r.ResolvedParameters,
				ServiceLabels:      domain.ServiceLabelStrings(r.Service.ServiceLabels),
			},
		})
	}
	return previewView{Host: p.Host, Rows: rows, HostLabels: labelDict(p.HostLabels)}
}
