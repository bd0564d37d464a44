package benchmarks

import "github.com/spf13/cobra"

var (
	episodes     int
	horizon      int
	saveFile     string
	runs         int
	quiet        bool
	verbose      bool
	metricsAddr  string
	seed         uint64
	cpuprofile   string
	recordTraces bool
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          "qlearn",
		Short:        "Tabular Q-learning experiments",
		SilenceUsage: true,
	}
	rootCommand.PersistentFlags().IntVarP(&episodes, "episodes", "e", 1000, "Number of episodes to run")
	rootCommand.PersistentFlags().IntVar(&horizon, "horizon", 100, "Horizon of each episode")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().IntVar(&runs, "runs", 1, "Number of experiment runs")
	rootCommand.PersistentFlags().BoolVar(&quiet, "quiet", false, "Do not print the live progress")
	rootCommand.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every experiment event")
	rootCommand.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /status on this address")
	rootCommand.PersistentFlags().Uint64Var(&seed, "seed", 0, "Seed of the agents, 0 draws fresh entropy")
	rootCommand.PersistentFlags().BoolVar(&recordTraces, "traces", false, "Record the episode traces as json lines in the save folder")
	rootCommand.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile to this file in the save folder")
	// adding the subcommands here
	rootCommand.AddCommand(TargetCommand())
	rootCommand.AddCommand(GridCommand())
	return rootCommand
}
