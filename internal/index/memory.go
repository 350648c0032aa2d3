package index

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Checkmk/checkmk-sub072/internal/discovery"
)

// MemoryIndex keeps the last discovery summary of every host. It is the
// source for the API and is refilled from Redis on startup when available.
type MemoryIndex struct {
	mu        sync.RWMutex
	summaries map[string]discovery.Summary // host -> last summary
	lastRun   time.Time                    // time of the most recent summary
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		summaries: make(map[string]discovery.Summary),
	}
}

// Record stores s as the latest summary of its host. It implements
// discovery.Recorder.
func (idx *MemoryIndex) Record(_ context.Context, s discovery.Summary) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.summaries[s.Host] = s
	if s.At.After(idx.lastRun) {
		idx.lastRun = s.At
	}
}

// Load merges summaries into the index. Newer entries already in the index
// win.
func (idx *MemoryIndex) Load(summaries []discovery.Summary) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	loaded := 0
	for _, s := range summaries {
		if cur, ok := idx.summaries[s.Host]; ok && !s.At.After(cur.At) {
			continue
		}
		idx.summaries[s.Host] = s
		if s.At.After(idx.lastRun) {
			idx.lastRun = s.At
		}
		loaded++
	}
	return loaded
}

// Get returns the summary of host.
func (idx *MemoryIndex) Get(host string) (discovery.Summary, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	s, ok := idx.summaries[host]
	return s, ok
}

// All returns every summary sorted by host.
func (idx *MemoryIndex) All() []discovery.Summary {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]discovery.Summary, 0, len(idx.summaries))
	for _, s := range idx.summaries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Host < out[j].Host })
	return out
}

// Delete forgets host.
func (idx *MemoryIndex) Delete(host string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.summaries, host)
}

// Count returns the number of hosts in the index.
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.summaries)
}

// Failed returns the number of hosts whose last run failed.
func (idx *MemoryIndex) Failed() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := 0
	for _, s := range idx.summaries {
		if s.Error != "" {
			n++
		}
	}
	return n
}

// LastRun returns the time of the most recent summary.
func (idx *MemoryIndex) LastRun() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastRun
}
