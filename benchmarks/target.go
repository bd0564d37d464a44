package benchmarks

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/qlearn/target"
	"github.com/zeu5/qlearn/types"
)

// Target compares the configured agent with a purely greedy one on the
// single target environment
func Target(agent *agentFlags, states, targetAction int, reward float64) error {
	if targetAction < 0 || targetAction >= states {
		return fmt.Errorf("target %d out of range [0, %d)", targetAction, states)
	}
	config, err := agent.config(states, states)
	if err != nil {
		return err
	}
	greedy := config
	greedy.Epsilon = 0

	s := newSession()
	c, err := types.NewComparison[int, int](s.comparisonConfig(agent.decay))
	if err != nil {
		return err
	}
	c.AddAnalysis("Rewards", types.NewRewardAnalyzer[int, int](), types.RewardPlotter(saveFile, 100))
	c.AddAnalysis("Goal", types.NewGoalAnalyzer[int, int](), types.GoalPlotter(saveFile))
	c.AddAnalysis("Coverage", types.NewCoverageAnalyzer[int, int](), types.CoverageComparator[int, int](saveFile))

	c.AddExperiment(types.NewExperiment[int, int](
		"QLearning",
		agentConstructor[int, int](config, nil, seed),
		target.NewEnvironment(states, targetAction, reward),
		0,
	))
	c.AddExperiment(types.NewExperiment[int, int](
		"Greedy",
		agentConstructor[int, int](greedy, nil, seed),
		target.NewEnvironment(states, targetAction, reward),
		0,
	))

	return s.run(c)
}

func TargetCommand() *cobra.Command {
	var states int
	var targetAction int
	var reward float64
	agent := &agentFlags{}

	cmd := &cobra.Command{
		Use:   "target",
		Short: "Learn to pick the single rewarded action",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Target(agent, states, targetAction, reward)
		},
	}
	cmd.PersistentFlags().IntVar(&states, "states", target.DefaultStates, "Number of states and actions")
	cmd.PersistentFlags().IntVar(&targetAction, "target", target.DefaultTarget, "The rewarded action")
	cmd.PersistentFlags().Float64Var(&reward, "reward", target.DefaultReward, "Reward of the target, every other action costs as much")
	agent.register(cmd, 0.3, 0.95)
	return cmd
}
