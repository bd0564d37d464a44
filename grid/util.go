package grid

import (
	"path"
	"strconv"

	"github.com/zeu5/qlearn/types"
	"github.com/zeu5/qlearn/util"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// VisitDataSet counts how many times each cell was visited
type VisitDataSet struct {
	Visits map[int]map[int]int
	Height int
	Width  int
}

var _ plotter.GridXYZ = &VisitDataSet{}

func (g *VisitDataSet) Dims() (int, int) {
	return g.Width, g.Height
}

func (g *VisitDataSet) Z(j, i int) float64 {
	return float64(g.Visits[i][j])
}

func (g *VisitDataSet) X(j int) float64 {
	return float64(j)
}

func (g *VisitDataSet) Y(i int) float64 {
	return float64(i)
}

func (g *VisitDataSet) Max() float64 {
	max := 0
	for _, vals := range g.Visits {
		for _, count := range vals {
			if count > max {
				max = count
			}
		}
	}
	return float64(max)
}

// VisitAnalyzer records the cells visited in every episode, the start
// cell included
type VisitAnalyzer struct {
	env     *Environment
	dataSet *VisitDataSet
}

var _ types.Analyzer[int, int] = &VisitAnalyzer{}

func NewVisitAnalyzer(env *Environment) *VisitAnalyzer {
	v := &VisitAnalyzer{env: env}
	v.Reset()
	return v
}

func (v *VisitAnalyzer) visit(state int) {
	pos := v.env.Position(state)
	if _, ok := v.dataSet.Visits[pos.I]; !ok {
		v.dataSet.Visits[pos.I] = make(map[int]int)
	}
	v.dataSet.Visits[pos.I][pos.J] += 1
}

func (v *VisitAnalyzer) Analyze(_ int, eCtx *types.EpisodeContext[int, int]) {
	trace := eCtx.Trace
	for i := 0; i < trace.Len(); i++ {
		state, _, result, _ := trace.Get(i)
		if i == 0 {
			v.visit(state)
		}
		v.visit(result.NextState)
	}
}

func (v *VisitAnalyzer) DataSet() types.DataSet {
	return v.dataSet
}

func (v *VisitAnalyzer) Reset() {
	v.dataSet = &VisitDataSet{
		Visits: make(map[int]map[int]int),
		Height: v.env.Height,
		Width:  v.env.Width,
	}
}

// VisitHeatMapComparator draws one heat map of the visits per experiment
func VisitHeatMapComparator(plotPath string) types.Comparator {
	return func(run int, names []string, ds []types.DataSet) error {
		if err := util.EnsureDir(plotPath); err != nil {
			return err
		}
		for i, name := range names {
			dataSet := ds[i].(*VisitDataSet)
			if dataSet.Max() == 0 {
				continue
			}

			p := plot.New()
			p.Title.Text = name
			heatMap := plotter.NewHeatMap(dataSet, palette.Heat(20, 1))
			if heatMap.Max == heatMap.Min {
				heatMap.Max = heatMap.Min + 1
			}
			p.Add(heatMap)
			if err := p.Save(4*vg.Inch, 4*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_"+name+"_visits.png")); err != nil {
				return err
			}
		}
		return nil
	}
}
