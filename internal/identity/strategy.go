package identity

import (
	"fmt"
	"strings"
)

// Candidates is a view over the rows a strategy may pick from. Skip, when
// set, hides rows that are not eligible.
type Candidates struct {
	Len  int
	At   func(i int) Identity
	Skip func(i int) bool
}

// Strategy picks the row of pool that matches id.
type Strategy interface {
	Name() string
	// Find returns the chosen row, its match, and whether any row cleared
	// threshold. threshold applies to Match.Normalized and must be exceeded.
	Find(id Identity, pool Candidates, threshold float64) (int, Match, bool)
}

const (
	GreedyStrategy = "greedy"
	BestStrategy   = "best"
)

// Greedy accepts the first row, in table order, that clears the threshold.
// Results depend on row order and are not symmetric across tables.
type Greedy struct{}

func (Greedy) Name() string { return GreedyStrategy }

func (Greedy) Find(id Identity, pool Candidates, threshold float64) (int, Match, bool) {
	for i := 0; i < pool.Len; i++ {
		if pool.Skip != nil && pool.Skip(i) {
			continue
		}

		m := Compare(id, pool.At(i))
		if m.Normalized() > threshold {
			return i, m, true
		}
	}

	return -1, Match{}, false
}

// Best scans the whole pool and accepts the highest scoring row that clears
// the threshold; ties go to the earlier row.
type Best struct{}

func (Best) Name() string { return BestStrategy }

func (Best) Find(id Identity, pool Candidates, threshold float64) (int, Match, bool) {
	found := -1
	var best Match
	for i := 0; i < pool.Len; i++ {
		if pool.Skip != nil && pool.Skip(i) {
			continue
		}

		m := Compare(id, pool.At(i))
		if m.Normalized() <= threshold {
			continue
		}
		if found == -1 || m.Normalized() > best.Normalized() {
			found, best = i, m
		}
	}

	return found, best, found != -1
}

// StrategyByName resolves a configured strategy; empty selects Greedy.
func StrategyByName(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", GreedyStrategy:
		return Greedy{}, nil
	case BestStrategy:
		return Best{}, nil
	default:
		return nil, fmt.Errorf("unknown matching strategy %q", name)
	}
}
