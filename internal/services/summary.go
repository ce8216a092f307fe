package services

import "math"

// Summary aggregates the whole joined view.
type Summary struct {
	TotalLocations             int     `json:"totalLocations"`
	TotalProblems              int     `json:"totalProblems"`
	ActiveProblems             int     `json:"activeProblems"`
	ResolvedProblems           int     `json:"resolvedProblems"`
	UrgentProblems             int     `json:"urgentProblems"`
	AverageProblemsPerLocation float64 `json:"averageProblemsPerLocation"`
	LocationsWithProblems      int     `json:"locationsWithProblems"`
	MostCommonCategory         *string `json:"mostCommonCategory"`
	MostProblematicLocation    *string `json:"mostProblematicLocation"`
}

// countedKeys is a counter that remembers first-insertion order.
type countedKeys struct {
	order  []string
	counts map[string]int
}

func newCountedKeys() *countedKeys {
	return &countedKeys{counts: map[string]int{}}
}

func (c *countedKeys) touch(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
}

func (c *countedKeys) add(key string) {
	c.touch(key)
	c.counts[key]++
}

func (c *countedKeys) set(key string, n int) {
	c.touch(key)
	c.counts[key] = n
}

// max returns the key with the highest count; the earliest inserted key
// wins ties.
func (c *countedKeys) max() *string {
	if len(c.order) == 0 {
		return nil
	}
	best := c.order[0]
	for _, k := range c.order[1:] {
		if c.counts[k] > c.counts[best] {
			best = k
		}
	}
	return &best
}

// Summarize computes dashboard-wide totals. Locations sharing a name are
// counted under that name once, with the problem count of the last one.
func Summarize(locations []EnrichedLocation) Summary {
	s := Summary{TotalLocations: len(locations)}
	categories := newCountedKeys()
	perLocation := newCountedKeys()

	for _, loc := range locations {
		if len(loc.Problems) > 0 {
			s.LocationsWithProblems++
			perLocation.set(loc.Name, len(loc.Problems))
		}
		for _, p := range loc.Problems {
			s.TotalProblems++
			if p.Status.IsResolved() {
				s.ResolvedProblems++
			} else {
				s.ActiveProblems++
			}
			if p.IsUrgent {
				s.UrgentProblems++
			}
			categories.add(orUnknown(p.Category))
		}
	}

	if s.TotalLocations > 0 {
		avg := float64(s.TotalProblems) / float64(s.TotalLocations)
		s.AverageProblemsPerLocation = math.Floor(avg*10+0.5) / 10
	}
	s.MostCommonCategory = categories.max()
	s.MostProblematicLocation = perLocation.max()
	return s
}
