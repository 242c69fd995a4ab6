package graph

import (
	"math"
	"sort"
	"time"
)

// DegreeSummary describes one degree distribution.
type DegreeSummary struct {
	Min     int     `json:"min"`
	Max     int     `json:"max"`
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
}

// DegreeBucket is one bucket in the degree histogram
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CostBin is one bin of the edge-cost histogram, covering [Low, High).
// The last bin is closed.
type CostBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Stats summarises a meta-graph.
type Stats struct {
	TotalNodes        int            `json:"total_nodes"`
	TotalEdges        int            `json:"total_edges"`
	Singletons        int            `json:"singletons"`
	DummyNodes        int            `json:"dummy_nodes"`
	NumComponents     int            `json:"num_components"`
	LargestComponent  int            `json:"largest_component"`
	SmallestComponent int            `json:"smallest_component"`
	InDegree          DegreeSummary  `json:"in_degree"`
	OutDegree         DegreeSummary  `json:"out_degree"`
	DegreeHistogram   []DegreeBucket `json:"degree_histogram"`
	StartTime         *time.Time     `json:"start_time"`
	EndTime           *time.Time     `json:"end_time"`
	PricedEdges       int            `json:"priced_edges"`
	CostHistogram     []CostBin      `json:"cost_histogram"`
}

const costBins = 10

// ComputeStats gathers structural, temporal and cost statistics for g.
func ComputeStats(g *Graph) *Stats {
	s := &Stats{
		TotalNodes:      g.NumNodes(),
		TotalEdges:      g.NumEdges(),
		DegreeHistogram: defaultHistogram(),
	}
	if s.TotalNodes == 0 {
		return s
	}

	ids := g.order
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	// Weakly connected components
	uf := NewUnionFind(len(ids))
	for _, e := range g.Edges() {
		uf.Union(index[e.Source], index[e.Target])
	}
	sizes := uf.Sizes()
	s.NumComponents = len(sizes)
	s.SmallestComponent = len(ids)
	for _, sz := range sizes {
		if sz > s.LargestComponent {
			s.LargestComponent = sz
		}
		if sz < s.SmallestComponent {
			s.SmallestComponent = sz
		}
	}

	ins := make([]int, len(ids))
	outs := make([]int, len(ids))
	var first, last float64
	for i, id := range ids {
		ins[i] = g.InDegree(id)
		outs[i] = g.OutDegree(id)
		if ins[i]+outs[i] == 0 {
			s.Singletons++
		}
		s.DegreeHistogram[degreeBucket(ins[i]+outs[i])].Count++

		n := g.nodes[id]
		if n.Dummy {
			s.DummyNodes++
			continue
		}
		if s.StartTime == nil || n.Timestamp < first {
			first = n.Timestamp
			t := unixTime(first)
			s.StartTime = &t
		}
		if s.EndTime == nil || n.Timestamp > last {
			last = n.Timestamp
			t := unixTime(last)
			s.EndTime = &t
		}
	}
	s.InDegree = summarize(ins)
	s.OutDegree = summarize(outs)

	var costs []float64
	for _, e := range g.Edges() {
		if e.Priced {
			costs = append(costs, e.Cost)
		}
	}
	s.PricedEdges = len(costs)
	s.CostHistogram = histogram(costs, costBins)
	return s
}

func unixTime(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

func summarize(xs []int) DegreeSummary {
	sorted := append([]int(nil), xs...)
	sort.Ints(sorted)
	sum := 0
	for _, x := range sorted {
		sum += x
	}
	n := len(sorted)
	median := float64(sorted[n/2])
	if n%2 == 0 {
		median = float64(sorted[n/2-1]+sorted[n/2]) / 2
	}
	return DegreeSummary{
		Min:     sorted[0],
		Max:     sorted[n-1],
		Average: float64(sum) / float64(n),
		Median:  median,
	}
}

func histogram(xs []float64, bins int) []CostBin {
	if len(xs) == 0 {
		return nil
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if hi == lo {
		return []CostBin{{Low: lo, High: hi, Count: len(xs)}}
	}
	width := (hi - lo) / float64(bins)
	out := make([]CostBin, bins)
	for i := range out {
		out[i].Low = lo + float64(i)*width
		out[i].High = lo + float64(i+1)*width
	}
	out[bins-1].High = hi
	for _, x := range xs {
		i := int((x - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

func defaultHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"},
		{Label: "4-7"}, {Label: "8-15"}, {Label: "16-31"}, {Label: "32+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree == 0:
		return 0
	case degree == 1:
		return 1
	case degree <= 3:
		return 2
	case degree <= 7:
		return 3
	case degree <= 15:
		return 4
	case degree <= 31:
		return 5
	default:
		return 6
	}
}
