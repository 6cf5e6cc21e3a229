package kernel

import (
	"sort"
	"sync"
	"time"
)

// OpStats is the call record of one operation.
type OpStats struct {
	Name   string
	Calls  uint64
	Errors uint64
	Total  time.Duration
}

// Mean returns the average call time.
func (s OpStats) Mean() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Calls)
}

type statsTable struct {
	mu  sync.Mutex
	ops map[string]*OpStats
}

func newStatsTable() *statsTable {
	return &statsTable{ops: make(map[string]*OpStats)}
}

func (t *statsTable) record(name string, d time.Duration, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.ops[name]
	if !ok {
		s = &OpStats{Name: name}
		t.ops[name] = s
	}
	s.Calls++
	s.Total += d
	if failed {
		s.Errors++
	}
}

func (t *statsTable) snapshot() []OpStats {
	t.mu.Lock()
	out := make([]OpStats, 0, len(t.ops))
	for _, s := range t.ops {
		out = append(out, *s)
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (t *statsTable) reset() {
	t.mu.Lock()
	t.ops = make(map[string]*OpStats)
	t.mu.Unlock()
}
