// Package rules holds the configuration consulted during discovery: service
// description templates, check parameter rules, rediscovery defaults and
// cluster definitions.
package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/domain"
)

var validate = validator.New()

// Rules is a parsed and compiled rules file. It is immutable.
type Rules struct {
	descriptions map[string]string
	defaults     map[string]domain.Parameters
	parameters   []compiledRule
	rediscovery  discovery.RediscoveryParams
	clusters     map[string][]string
}

type compiledRule struct {
	plugin string
	hosts  []*regexp.Regexp
	items  []*regexp.Regexp
	value  domain.Parameters
}

// Empty returns rules without any configuration.
func Empty() *Rules {
	return &Rules{
		descriptions: map[string]string{},
		defaults:     map[string]domain.Parameters{},
		clusters:     map[string][]string{},
	}
}

// Load reads and compiles the rules file at path.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse compiles rules from YAML. Every problem is a configuration error.
func Parse(data []byte) (*Rules, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: failed to parse rules yaml: %v", domain.ErrConfiguration, err)
	}

	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: invalid rules: %v", domain.ErrConfiguration, err)
	}
	if err := f.Rediscovery.Validate(); err != nil {
		return nil, err
	}
	// compile once so broken patterns surface at load time
	if _, err := compileRediscovery(f.Rediscovery); err != nil {
		return nil, err
	}

	r := Empty()
	for k, v := range f.ServiceDescriptions {
		r.descriptions[k] = v
	}
	for k, v := range f.CheckDefaults {
		r.defaults[k] = v
	}
	for k, v := range f.Clusters {
		r.clusters[k] = append([]string(nil), v...)
	}
	r.rediscovery = f.Rediscovery

	for i, pr := range f.CheckParameters {
		hosts, err := compilePatterns(pr.Hosts)
		if err != nil {
			return nil, fmt.Errorf("check_parameters[%d] hosts: %w", i, err)
		}
		items, err := compilePatterns(pr.Items)
		if err != nil {
			return nil, fmt.Errorf("check_parameters[%d] items: %w", i, err)
		}
		r.parameters = append(r.parameters, compiledRule{plugin: pr.Plugin, hosts: hosts, items: items, value: pr.Value})
	}

	if err := r.checkClusters(); err != nil {
		return nil, err
	}
	return r, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid pattern %q: %v", domain.ErrConfiguration, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func compileRediscovery(p discovery.RediscoveryParams) ([]*regexp.Regexp, error) {
	all := make([]string, 0)
	all = append(all, p.ServiceWhitelist...)
	all = append(all, p.ServiceBlacklist...)
	all = append(all, p.VanishedServiceWhitelist...)
	all = append(all, p.VanishedServiceBlacklist...)
	return compilePatterns(all)
}

// checkClusters rejects nodes that belong to more than one cluster.
func (r *Rules) checkClusters() error {
	owner := map[string]string{}
	for _, cluster := range r.ClusterNames() {
		for _, node := range r.clusters[cluster] {
			if other, ok := owner[node]; ok {
				return fmt.Errorf("%w: node %s is part of clusters %s and %s", domain.ErrConfiguration, node, other, cluster)
			}
			owner[node] = cluster
		}
	}
	return nil
}

// Describe renders the service description of a plugin item. Plugins without
// a template use their name as template; an item is appended when the
// template has no "%s".
func (r *Rules) Describe(_ string, checkPluginName string, item *string) string {
	tmpl, ok := r.descriptions[checkPluginName]
	if !ok {
		tmpl = checkPluginName
	}
	if item == nil {
		return strings.TrimSpace(strings.ReplaceAll(tmpl, "%s", ""))
	}
	if !strings.Contains(tmpl, "%s") {
		return tmpl + " " + *item
	}
	return strings.Replace(tmpl, "%s", *item, 1)
}

// Compute layers plugin defaults, the discovered parameters and the
// parameter rules, in increasing precedence. Among the rules the first match
// wins for every key. A matching rule with a non-mapping value replaces the
// parameters entirely.
func (r *Rules) Compute(host, checkPluginName string, item *string, unresolved domain.Parameters) domain.Parameters {
	result := overlay(r.defaults[checkPluginName], unresolved)

	fromRules := map[string]any{}
	for _, rule := range r.parameters {
		if !rule.matches(host, checkPluginName, item) {
			continue
		}
		m, ok := rule.value.Mapping()
		if !ok {
			if len(fromRules) == 0 {
				return rule.value
			}
			continue
		}
		for k, v := range m {
			if _, seen := fromRules[k]; !seen {
				fromRules[k] = v
			}
		}
	}
	if len(fromRules) == 0 {
		return result
	}
	return overlay(result, domain.NewParameters(fromRules))
}

// overlay returns top merged onto base when both are mappings, otherwise top
// unless it is empty.
func overlay(base, top domain.Parameters) domain.Parameters {
	if top.IsZero() {
		return base
	}
	bm, bok := base.Mapping()
	tm, tok := top.Mapping()
	if !bok || !tok {
		return top
	}
	out := make(map[string]any, len(bm)+len(tm))
	for k, v := range bm {
		out[k] = v
	}
	for k, v := range tm {
		out[k] = v
	}
	return domain.NewParameters(out)
}

func (c compiledRule) matches(host, checkPluginName string, item *string) bool {
	if c.plugin != checkPluginName {
		return false
	}
	if len(c.hosts) > 0 && !anyMatch(c.hosts, host) {
		return false
	}
	if len(c.items) == 0 {
		return true
	}
	return item != nil && anyMatch(c.items, *item)
}

func anyMatch(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Rediscovery returns the configured rediscovery parameters.
func (r *Rules) Rediscovery() discovery.RediscoveryParams { return r.rediscovery }

// ClusterNames returns the configured clusters, sorted.
func (r *Rules) ClusterNames() []string {
	names := make([]string, 0, len(r.clusters))
	for name := range r.clusters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Nodes returns the nodes of cluster.
func (r *Rules) Nodes(cluster string) ([]string, bool) {
	nodes, ok := r.clusters[cluster]
	return nodes, ok
}

// ClusterOf returns the cluster node belongs to.
func (r *Rules) ClusterOf(node string) (string, bool) {
	for _, cluster := range r.ClusterNames() {
		for _, n := range r.clusters[cluster] {
			if n == node {
				return cluster, true
			}
		}
	}
	return "", false
}
