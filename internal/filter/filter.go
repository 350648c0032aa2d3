// Package filter decides which new and vanished services take part in a
// rediscovery run, based on include/exclude patterns matched against the
// rendered service description.
package filter

import (
	"fmt"
	"regexp"

	"github.com/Checkmk/checkmk-sub072/internal/domain"
)

// Filter matches services by description. The zero value is not usable; use
// Compile or AcceptAll.
type Filter struct {
	renderer  domain.DescriptionRenderer
	whitelist []*regexp.Regexp
	blacklist []*regexp.Regexp
}

// AcceptAll admits every service. Compile returns it when no patterns are
// configured, so callers may compare against it and skip filtering.
var AcceptAll = &Filter{}

// Compile builds a filter. Patterns match anywhere in the description unless
// they are anchored. An invalid pattern is a configuration error.
func Compile(renderer domain.DescriptionRenderer, whitelist, blacklist []string) (*Filter, error) {
	if len(whitelist) == 0 && len(blacklist) == 0 {
		return AcceptAll, nil
	}

	wl, err := compileAll(whitelist)
	if err != nil {
		return nil, err
	}
	bl, err := compileAll(blacklist)
	if err != nil {
		return nil, err
	}
	return &Filter{renderer: renderer, whitelist: wl, blacklist: bl}, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid service pattern %q: %v", domain.ErrConfiguration, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// IsAcceptAll reports whether f admits everything.
func (f *Filter) IsAcceptAll() bool { return f == AcceptAll }

// Match renders the description of the service and matches it.
func (f *Filter) Match(host, checkPluginName string, item *string) bool {
	if f.IsAcceptAll() {
		return true
	}
	return f.MatchDescription(f.renderer.Describe(host, checkPluginName, item))
}

// MatchDescription reports whether description is whitelisted (or no
// whitelist exists) and not blacklisted. The blacklist wins.
func (f *Filter) MatchDescription(description string) bool {
	if f.IsAcceptAll() {
		return true
	}
	if len(f.whitelist) > 0 && !anyMatch(f.whitelist, description) {
		return false
	}
	return !anyMatch(f.blacklist, description)
}

func anyMatch(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
