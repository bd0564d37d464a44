package benchmarks

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"
	"github.com/zeu5/qlearn/grid"
	"github.com/zeu5/qlearn/types"
)

// GridWalk compares the agent with and without the edge mask on a grid
// where the goal is in the corner opposite to the start
func GridWalk(agent *agentFlags, height, width int) error {
	if height < 1 || width < 1 || height*width < 2 {
		return fmt.Errorf("grid %dx%d is too small", height, width)
	}
	config, err := agent.config(height*width, grid.NumMovements)
	if err != nil {
		return err
	}

	s := newSession()
	c, err := types.NewComparison[int, int](s.comparisonConfig(agent.decay))
	if err != nil {
		return err
	}

	masked := grid.NewEnvironment(height, width)
	unmasked := grid.NewEnvironment(height, width)
	// without the edge mask only the action range is checked
	inRange := types.ActionMaskFunc[int, int](func(_, a int) bool {
		return a >= 0 && a < grid.NumMovements
	})

	c.AddAnalysis("Rewards", types.NewRewardAnalyzer[int, int](), types.RewardPlotter(saveFile, 100))
	c.AddAnalysis("Goal", types.NewGoalAnalyzer[int, int](), types.GoalPlotter(saveFile))
	// both environments have the same shape, one analyzer serves the two
	c.AddAnalysis("Visits", grid.NewVisitAnalyzer(masked), grid.VisitHeatMapComparator(saveFile))
	c.AddAnalysis("Coverage", types.NewCoverageAnalyzer[int, int](), types.CoverageComparator[int, int](saveFile))

	center := grid.Position{I: height / 2, J: width / 2}
	corner := grid.Position{I: height - 1, J: 0}
	c.AddAnalysis("Properties", types.NewPropertyAnalyzer[int, int](
		path.Join(saveFile, "properties"),
		s.logger,
		types.MonitorProperty("ReachCenter", grid.PosReached(masked, center.I, center.J)),
		types.MonitorProperty("CornerThenGoal", grid.PathThrough(masked, corner, masked.Goal)),
	), types.PropertyComparator(saveFile))

	c.AddExperiment(types.NewExperiment[int, int](
		"Masked",
		agentConstructor[int, int](config, masked, seed),
		masked,
		0,
	))
	c.AddExperiment(types.NewExperiment[int, int](
		"Unmasked",
		agentConstructor[int, int](config, inRange, seed),
		unmasked,
		0,
	))

	return s.run(c)
}

func GridCommand() *cobra.Command {
	var height int
	var width int
	agent := &agentFlags{}

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Walk from one corner of a grid to the other",
		RunE: func(cmd *cobra.Command, args []string) error {
			return GridWalk(agent, height, width)
		},
	}
	cmd.PersistentFlags().IntVar(&height, "height", 5, "Height of the grid")
	cmd.PersistentFlags().IntVar(&width, "width", 5, "Width of the grid")
	agent.register(cmd, 0.5, 0.995)
	return cmd
}
