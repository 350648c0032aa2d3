package scheduler

import "sort"

// HostLister lists known hosts.
type HostLister interface {
	Hosts() ([]string, error)
}

// knownHosts returns the sorted union of the hosts of all listers.
func knownHosts(listers ...HostLister) ([]string, error) {
	seen := map[string]struct{}{}
	for _, l := range listers {
		if l == nil {
			continue
		}
		hosts, err := l.Hosts()
		if err != nil {
			return nil, err
		}
		for _, h := range hosts {
			seen[h] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}
	sort.Strings(out)
	return out, nil
}
