package types

import (
	"encoding/json"
	"fmt"
	"path"
	"strconv"

	"github.com/zeu5/qlearn/util"
)

// VisitGraph records the transitions observed across episodes
type VisitGraph[S, A Index] struct {
	Nodes map[S]*Node[S, A] `json:"nodes"`
}

func NewVisitGraph[S, A Index]() *VisitGraph[S, A] {
	return &VisitGraph[S, A]{
		Nodes: make(map[S]*Node[S, A]),
	}
}

// Update adds the transition, returns true if from was not seen before
func (v *VisitGraph[S, A]) Update(from S, action A, to S) bool {
	new := false
	if _, ok := v.Nodes[from]; !ok {
		v.Nodes[from] = NewNode[S, A](from)
		new = true
	}
	if _, ok := v.Nodes[to]; !ok {
		v.Nodes[to] = NewNode[S, A](to)
	}
	v.Nodes[from].Visits += 1
	v.Nodes[from].AddNext(action, to)
	return new
}

func (v *VisitGraph[S, A]) GetVisits() map[S]int {
	results := make(map[S]int)
	for k, n := range v.Nodes {
		results[k] = n.Visits
	}
	return results
}

// NumStates is the number of distinct states in the graph
func (v *VisitGraph[S, A]) NumStates() int {
	return len(v.Nodes)
}

// NumTransitions is the number of distinct (state, action, next state) triples
func (v *VisitGraph[S, A]) NumTransitions() int {
	count := 0
	for _, n := range v.Nodes {
		for _, next := range n.Next {
			count += len(next)
		}
	}
	return count
}

func (v *VisitGraph[S, A]) Record(filePath string) error {
	bs, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return util.WriteToFile(filePath, string(bs))
}

type Node[S, A Index] struct {
	State  S   `json:"state"`
	Visits int `json:"visits"`
	// each action can lead to many states, counted by occurrence
	Next map[A]map[S]int `json:"next"`
}

func NewNode[S, A Index](s S) *Node[S, A] {
	return &Node[S, A]{
		State:  s,
		Visits: 0,
		Next:   make(map[A]map[S]int),
	}
}

func (n *Node[S, A]) AddNext(a A, next S) {
	if _, ok := n.Next[a]; !ok {
		n.Next[a] = make(map[S]int)
	}
	n.Next[a][next] += 1
}

// CoverageDataSet is the number of distinct states seen after each episode
// and the graph of the whole run
type CoverageDataSet[S, A Index] struct {
	Coverage []float64
	Graph    *VisitGraph[S, A]
}

// CoverageAnalyzer tracks how many states the agent has discovered
type CoverageAnalyzer[S, A Index] struct {
	graph    *VisitGraph[S, A]
	coverage []float64
}

var _ Analyzer[int, int] = &CoverageAnalyzer[int, int]{}

func NewCoverageAnalyzer[S, A Index]() *CoverageAnalyzer[S, A] {
	c := &CoverageAnalyzer[S, A]{}
	c.Reset()
	return c
}

func (c *CoverageAnalyzer[S, A]) Analyze(_ int, eCtx *EpisodeContext[S, A]) {
	for i := 0; i < eCtx.Trace.Len(); i++ {
		s, a, result, _ := eCtx.Trace.Get(i)
		c.graph.Update(s, a, result.NextState)
	}
	c.coverage = append(c.coverage, float64(c.graph.NumStates()))
}

func (c *CoverageAnalyzer[S, A]) DataSet() DataSet {
	out := make([]float64, len(c.coverage))
	copy(out, c.coverage)
	return &CoverageDataSet[S, A]{
		Coverage: out,
		Graph:    c.graph,
	}
}

func (c *CoverageAnalyzer[S, A]) Reset() {
	c.graph = NewVisitGraph[S, A]()
	c.coverage = make([]float64, 0)
}

// CoverageComparator plots the coverage of the experiments and records
// the visit graph of each one as <run>_<experiment>_graph.json
func CoverageComparator[S, A Index](plotPath string) Comparator {
	return func(run int, names []string, ds []DataSet) error {
		coverages := make([]DataSet, len(ds))
		for i, name := range names {
			dataSet := ds[i].(*CoverageDataSet[S, A])
			coverages[i] = dataSet.Coverage
			fmt.Printf("Coverage for experiment: %s, states: %d, transitions: %d\n", name, dataSet.Graph.NumStates(), dataSet.Graph.NumTransitions())
			if err := util.EnsureDir(plotPath); err != nil {
				return err
			}
			if err := dataSet.Graph.Record(path.Join(plotPath, strconv.Itoa(run)+"_"+name+"_graph.json")); err != nil {
				return err
			}
		}
		return linePlot(path.Join(plotPath, strconv.Itoa(run)+"_coverage.png"), "Episode", "Distinct states", names, coverages)
	}
}
