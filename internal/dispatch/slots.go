package dispatch

import (
	"fmt"
	"time"
)

// Planner hands out wall-clock slots. Each slot holds up to limit candidates;
// once full the next slot starts one interview later. At most Budget slots
// are handed out.
type Planner struct {
	start     time.Time
	step      time.Duration
	limit     int
	budget    int
	slot      int
	occupancy int
}

// NewPlanner creates a planner for a block starting at start. The budget is
// ceil(block / interview).
func NewPlanner(start time.Time, block, interview time.Duration, limit int) (*Planner, error) {
	if interview <= 0 {
		return nil, fmt.Errorf("interview duration must be positive, got %s", interview)
	}
	if block <= 0 {
		return nil, fmt.Errorf("block duration must be positive, got %s", block)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("concurrency limit must be positive, got %d", limit)
	}

	budget := int(block / interview)
	if block%interview != 0 {
		budget++
	}

	return &Planner{start: start, step: interview, limit: limit, budget: budget}, nil
}

// Budget returns the number of slots available.
func (p *Planner) Budget() int { return p.budget }

// Reserve returns the slot the next candidate goes into, moving to the next
// slot when the current one is full. It reports false once the budget is spent.
func (p *Planner) Reserve() (time.Time, bool) {
	if p.occupancy >= p.limit {
		p.slot++
		p.occupancy = 0
	}

	if p.slot >= p.budget {
		return time.Time{}, false
	}

	return p.start.Add(time.Duration(p.slot) * p.step), true
}

// Commit records a candidate in the reserved slot.
func (p *Planner) Commit() {
	p.occupancy++
}
