package session

import (
	"sort"
	"sync"

	"github.com/aiptx/aiptx-go/pkg/aiptx"
)

// Aggregator accumulates the findings of one scan job. Findings are
// deduplicated by id: a second finding with a seen id is dropped, even when
// it carries false_positive=true; servers that intend a correction must
// send a new id. Nothing is ever removed.
type Aggregator struct {
	mu         sync.Mutex
	order      []aiptx.Finding
	seen       map[string]struct{}
	duplicates int
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		seen: make(map[string]struct{}),
	}
}

// Add appends a finding and reports whether it was new. Duplicate ids are
// counted and dropped.
func (a *Aggregator) Add(f aiptx.Finding) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.seen[f.ID]; ok {
		a.duplicates++
		return false
	}

	a.seen[f.ID] = struct{}{}
	a.order = append(a.order, f)
	return true
}

// All returns the findings in arrival order.
func (a *Aggregator) All() []aiptx.Finding {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]aiptx.Finding, len(a.order))
	copy(out, a.order)
	return out
}

// BySeverity returns the findings ordered critical first. Findings of equal
// severity keep their arrival order.
func (a *Aggregator) BySeverity() []aiptx.Finding {
	out := a.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() < out[j].Severity.Rank()
	})
	return out
}

// Count returns the number of distinct findings.
func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.order)
}

// Duplicates returns how many findings were dropped as duplicate ids.
func (a *Aggregator) Duplicates() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.duplicates
}
