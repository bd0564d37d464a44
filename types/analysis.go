package types

import (
	"fmt"
	"path"
	"strconv"

	"github.com/zeu5/qlearn/util"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// RewardAnalyzer collects the total reward of every episode
type RewardAnalyzer[S, A Index] struct {
	rewards []float64
}

var _ Analyzer[int, int] = &RewardAnalyzer[int, int]{}

func NewRewardAnalyzer[S, A Index]() *RewardAnalyzer[S, A] {
	return &RewardAnalyzer[S, A]{
		rewards: make([]float64, 0),
	}
}

func (r *RewardAnalyzer[S, A]) Analyze(_ int, eCtx *EpisodeContext[S, A]) {
	r.rewards = append(r.rewards, eCtx.TotalReward)
}

// DataSet is a []float64 with one entry per episode
func (r *RewardAnalyzer[S, A]) DataSet() DataSet {
	out := make([]float64, len(r.rewards))
	copy(out, r.rewards)
	return out
}

func (r *RewardAnalyzer[S, A]) Reset() {
	r.rewards = make([]float64, 0)
}

// GoalAnalyzer tracks the fraction of episodes that ended with a terminal transition
type GoalAnalyzer[S, A Index] struct {
	reached int
	rates   []float64
}

var _ Analyzer[int, int] = &GoalAnalyzer[int, int]{}

func NewGoalAnalyzer[S, A Index]() *GoalAnalyzer[S, A] {
	return &GoalAnalyzer[S, A]{
		rates: make([]float64, 0),
	}
}

func (g *GoalAnalyzer[S, A]) Analyze(_ int, eCtx *EpisodeContext[S, A]) {
	if eCtx.Reached {
		g.reached += 1
	}
	g.rates = append(g.rates, float64(g.reached)/float64(len(g.rates)+1))
}

// DataSet is a []float64 with the cumulative success rate after each episode
func (g *GoalAnalyzer[S, A]) DataSet() DataSet {
	out := make([]float64, len(g.rates))
	copy(out, g.rates)
	return out
}

func (g *GoalAnalyzer[S, A]) Reset() {
	g.reached = 0
	g.rates = make([]float64, 0)
}

// RewardSummary returns mean and standard deviation of the last window values,
// all of them when window is not positive
func RewardSummary(values []float64, window int) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	if window > 0 && window < len(values) {
		values = values[len(values)-window:]
	}
	if len(values) == 1 {
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// RewardPlotter draws the episode rewards of every experiment in one chart per run
// and prints the mean reward over the last window episodes
func RewardPlotter(plotPath string, window int) Comparator {
	return func(run int, names []string, ds []DataSet) error {
		for i, name := range names {
			mean, std := RewardSummary(ds[i].([]float64), window)
			fmt.Printf("Mean reward over the last %d episodes: %.2f (std %.2f) for experiment: %s\n", window, mean, std, name)
		}
		return linePlot(path.Join(plotPath, strconv.Itoa(run)+"_rewards.png"), "Episode", "Total reward", names, ds)
	}
}

// GoalPlotter draws the cumulative success rate of every experiment
func GoalPlotter(plotPath string) Comparator {
	return func(run int, names []string, ds []DataSet) error {
		for i, name := range names {
			rates := ds[i].([]float64)
			if len(rates) > 0 {
				fmt.Printf("Success rate: %.3f for experiment: %s\n", rates[len(rates)-1], name)
			}
		}
		return linePlot(path.Join(plotPath, strconv.Itoa(run)+"_success_rate.png"), "Episode", "Success rate", names, ds)
	}
}

func linePlot(file, xLabel, yLabel string, names []string, ds []DataSet) error {
	if err := util.EnsureDir(path.Dir(file)); err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = "Comparison"
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	for i := 0; i < len(names); i++ {
		values := ds[i].([]float64)
		points := make(plotter.XYs, len(values))
		for j, v := range values {
			points[j] = plotter.XY{
				X: float64(j),
				Y: v,
			}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			continue
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(names[i], line)
	}
	return p.Save(8*vg.Inch, 8*vg.Inch, file)
}
